package main

import (
	"fmt"
	"os"

	"github.com/Lafeng/nobus/crypto"
	ex "github.com/Lafeng/nobus/exception"
	log "github.com/Lafeng/nobus/glog"
	"github.com/urfave/cli/v2"
)

var boot = &bootContext{vFlag: -1}

func init() {
	// -v is the glog verbosity
	cli.VersionFlag = &cli.BoolFlag{
		Name:    "version",
		Aliases: []string{"V"},
		Usage:   "show version",
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:        app_name,
		Usage:       "craft and exploit NOBUS backdoors in Diffie-Hellman implementations",
		Version:     versionNumber(),
		Description: builtWith(),
		Before:      boot.initialize,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "indicate Config path if it was in nontypical path",
				Destination: &boot.configFile,
			},
			&cli.StringFlag{
				Name:        "logdir",
				Usage:       "if non-empty will write log into the `DIR`",
				Destination: &boot.logdir,
			},
			&cli.IntFlag{
				Name:        "v",
				Usage:       "verbose log level",
				Value:       -1,
				Destination: &boot.vFlag,
			},
			&cli.BoolFlag{
				Name:        "quiet",
				Aliases:     []string{"q"},
				Usage:       "suppress progress and comments",
				Destination: &boot.quiet,
			},
			&cli.BoolFlag{
				Name:        "debug",
				Usage:       "debug mode",
				Destination: &boot.debug,
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "gen",
				Usage:  "generate parameters that inject a NOBUS backdoor into a DH modulus",
				Action: boot.genCommandHandler,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "bits",
						Aliases: []string{"b"},
						Usage:   "bit length of the backdoor modulus n (default from config)",
					},
					&cli.IntFlag{
						Name:    "smoothness",
						Aliases: []string{"s"},
						Usage:   "bit length of the small prime factors of p-1 and q-1 (default from config)",
					},
					&cli.Int64Flag{
						Name:  "seed",
						Usage: "deterministic random seed, drawn from the OS if absent",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "also write the secret parameters into `FILE`",
					},
				},
			},
			{
				Name:      "exp",
				Usage:     "exploit a backdoored modulus: find x with g^x = h (mod n)",
				ArgsUsage: "[p_factors q_factors] g h [h...]",
				Action:    boot.expCommandHandler,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "params",
						Usage: "read the factor lists from a parameter `FILE`",
					},
					&cli.StringFlag{
						Name:  "rescale",
						Usage: "combination of the two halves, order|gcd (default from config)",
					},
					&cli.IntFlag{
						Name:    "workers",
						Aliases: []string{"w"},
						Usage:   "parallel sub-problems (default from config)",
					},
				},
			},
			{
				Name:   "simulate",
				Usage:  "run a DH exchange under a backdoored group and intercept it",
				Action: boot.simulateCommandHandler,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "params",
						Usage: "parameter `FILE`, generated on the fly if absent",
					},
					&cli.IntFlag{
						Name:    "bits",
						Aliases: []string{"b"},
						Usage:   "bit length of a generated modulus",
						Value:   256,
					},
					&cli.IntFlag{
						Name:    "smoothness",
						Aliases: []string{"s"},
						Usage:   "smoothness of a generated modulus",
						Value:   20,
					},
					&cli.StringFlag{
						Name:    "generator",
						Aliases: []string{"g"},
						Usage:   "DH generator",
						Value:   "2",
					},
					&cli.Int64Flag{
						Name:  "seed",
						Usage: "deterministic random seed for generation and key exchange",
					},
					&cli.StringFlag{
						Name:  "cipher",
						Usage: "session cipher, CHACHA20|AES128CFB|AES256CFB|AES128CTR|AES256CTR",
						Value: crypto.DefaultCipher,
					},
					&cli.StringFlag{
						Name:    "message",
						Aliases: []string{"m"},
						Usage:   "what Alice sends under the agreed key",
						Value:   "attack at dawn",
					},
					&cli.StringFlag{
						Name:  "rescale",
						Usage: "combination of the two halves, order|gcd (default from config)",
					},
				},
			},
			{
				Name:      "pollard",
				Usage:     "Pollard's rho in the subgroup of order (p-1)/2",
				ArgsUsage: "g h p",
				Action:    boot.pollardCommandHandler,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "retries",
						Usage: "rho attempts before giving up (default from config)",
					},
					&cli.Int64Flag{
						Name:  "seed",
						Usage: "seed of the retry walks, drawn from the OS if absent",
					},
				},
			},
			{
				Name:      "bsgs",
				Usage:     "baby-step giant-step over [0, p)",
				ArgsUsage: "g h p",
				Action:    boot.bsgsCommandHandler,
			},
			{
				Name:      "pohlig",
				Usage:     "Pohlig-Hellman with the given prime factors of p-1",
				ArgsUsage: "g h p f1,f2,...",
				Action:    boot.pohligCommandHandler,
			},
			{
				Name:      "crt",
				Usage:     "Chinese remainder of a1,a2,... modulo m1,m2,...",
				ArgsUsage: "a1,a2,... m1,m2,...",
				Action:    boot.crtCommandHandler,
			},
			{
				Name:   "csc",
				Usage:  "create config template",
				Action: boot.cscCommandHandler,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "write to `FILE` instead of stdout",
					},
				},
			},
		},
	}
}

func main() {
	err := newApp().Run(os.Args)
	log.Flush()
	if err != nil {
		if _, y := err.(cli.ExitCoder); y {
			cli.HandleExitCoder(err)
		}
		fmt.Fprintln(os.Stderr, err, ex.Detail(err))
		os.Exit(ex.CodeOf(err))
	}
}
