package main

import (
	"context"
	"fmt"
	"io"
	"math/big"
	"math/rand"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/Lafeng/nobus/config"
	"github.com/Lafeng/nobus/crypto"
	"github.com/Lafeng/nobus/dlog"
	ex "github.com/Lafeng/nobus/exception"
	"github.com/Lafeng/nobus/exploit"
	log "github.com/Lafeng/nobus/glog"
	"github.com/Lafeng/nobus/paramgen"
	"github.com/urfave/cli/v2"
)

var sigChan = make(chan os.Signal, 1)

type bootContext struct {
	configFile string
	logdir     string
	debug      bool
	quiet      bool
	vSpecified bool
	vFlag      int
	conf       *config.Config
	// stdout unless a test redirects it
	out io.Writer
}

// global before handler
func (ctx *bootContext) initialize(c *cli.Context) (err error) {
	// inject parameters into package.exception
	ex.DEBUG = ctx.debug
	if ctx.out == nil {
		ctx.out = os.Stdout
	}
	// glog
	ctx.vSpecified = c.IsSet("v")
	log.SetLogOutput(ctx.logdir)

	ctx.conf, err = config.Load(ctx.configFile)
	if err != nil {
		return err
	}
	if ctx.vSpecified { // -v wins over config
		log.SetLogVerbose(ctx.vFlag)
	} else {
		log.SetLogVerbose(ctx.conf.Verbose)
	}
	if ctx.debug {
		log.Infoln(versionString())
		if ctx.conf.File() != config.NULL {
			log.Infoln("Config loaded from", ctx.conf.File())
		}
	}
	return nil
}

// runContext is cancelled by SIGINT or SIGTERM.
func (ctx *bootContext) runContext() (context.Context, context.CancelFunc) {
	rc, cancel := context.WithCancel(context.Background())
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigChan:
			log.Warningln("Terminated by", sig)
			cancel()
		case <-rc.Done():
		}
		signal.Stop(sigChan)
	}()
	return rc, cancel
}

func (ctx *bootContext) generator(seed *int64) (*paramgen.Generator, error) {
	var (
		state *paramgen.State
		err   error
	)
	if seed != nil {
		state = paramgen.NewState(*seed)
	} else if state, err = paramgen.NewEntropyState(); err != nil {
		return nil, err
	}
	if log.V(log.LV_PROGRESS) {
		log.Infoln("Random seed", state.Seed())
	}
	return &paramgen.Generator{
		State:         state,
		ClosingBudget: ctx.conf.ClosingBudget,
		RegenBudget:   ctx.conf.RegenBudget,
		Observer:      ctx.observer(),
	}, nil
}

func (ctx *bootContext) exploiter(c *cli.Context) (*exploit.Exploiter, error) {
	rescale := ctx.conf.Rescale
	if c.IsSet("rescale") {
		rescale = c.String("rescale")
	}
	mode, err := exploit.ParseRescale(rescale)
	if err != nil {
		return nil, err
	}
	workers := ctx.conf.Workers
	if c.IsSet("workers") {
		workers = c.Int("workers")
	}
	return &exploit.Exploiter{
		Solver:   ctx.solver(workers),
		Rescale:  mode,
		Observer: ctx.observer(),
	}, nil
}

func (ctx *bootContext) solver(workers int) *dlog.PohligHellman {
	return &dlog.PohligHellman{
		Retries:  ctx.conf.Retries,
		Workers:  workers,
		Tables:   dlog.NewTableCache(uint(ctx.conf.TableCacheSize), ctx.conf.TableLimit),
		Observer: ctx.observer(),
	}
}

// ./nobus gen [-b bits] [-s smoothness] [--seed N] [-o FILE]
func (ctx *bootContext) genCommandHandler(c *cli.Context) error {
	if c.NArg() > 0 {
		return commandHelp(c)
	}
	bits, smoothness := ctx.conf.Bits, ctx.conf.Smoothness
	if c.IsSet("bits") {
		bits = c.Int("bits")
	}
	if c.IsSet("smoothness") {
		smoothness = c.Int("smoothness")
	}
	var seed *int64
	if c.IsSet("seed") {
		s := c.Int64("seed")
		seed = &s
	}
	gen, err := ctx.generator(seed)
	if err != nil {
		return err
	}

	rc, cancel := ctx.runContext()
	defer cancel()
	heading("Generating %d-bit backdoor, %d-bit smoothness", bits, smoothness)
	ps, err := gen.Params(rc, bits, smoothness)
	if err != nil {
		return err
	}
	ctx.printParams(ps)

	if output := getOutputArg(c); output != config.NULL {
		if err = config.SaveParams(output, ps); err != nil {
			return err
		}
		if log.V(log.LV_PROGRESS) {
			log.Infoln("Parameters saved to", output)
		}
	}
	return nil
}

func (ctx *bootContext) printParams(ps *paramgen.Params) {
	w := ctx.out
	printHalf := func(name string, p *big.Int, factors []*big.Int) {
		fmt.Fprintf(w, "%s = %s\n\n", name, config.Hex(p))
		fmt.Fprintf(w, "%s_factors = [\n", name)
		for _, f := range factors {
			fmt.Fprintf(w, "    %s,\n", config.Hex(f))
		}
		fmt.Fprint(w, "]\n\n")
	}
	printHalf("p", ps.P, ps.PFactors)
	printHalf("q", ps.Q, ps.QFactors)
	fmt.Fprintf(w, "n = %s\n\n", config.Hex(ps.N))

	if !ctx.quiet {
		fmt.Fprintf(w, "# p (%d bits)\n", ps.P.BitLen())
		fmt.Fprintf(w, "# q (%d bits)\n", ps.Q.BitLen())
		fmt.Fprintf(w, "# n (%d bits)\n", ps.N.BitLen())
		fmt.Fprintf(w, "# fingerprint %s\n", crypto.Fingerprint(ps.N))
	}
}

// ./nobus exp [--params FILE] p_factors q_factors g h [h...]
func (ctx *bootContext) expCommandHandler(c *cli.Context) error {
	args := c.Args().Slice()
	var pFactors, qFactors []*big.Int
	if file := c.String("params"); file != config.NULL {
		ps, err := config.LoadParams(file)
		if err != nil {
			return err
		}
		pFactors, qFactors = ps.PFactors, ps.QFactors
	} else {
		if len(args) < 4 {
			return commandHelp(c)
		}
		var err error
		if pFactors, err = config.ParseInts(args[0]); err != nil {
			return err
		}
		if qFactors, err = config.ParseInts(args[1]); err != nil {
			return err
		}
		args = args[2:]
	}
	if len(args) < 2 {
		return commandHelp(c)
	}
	nums, err := parseArgs(args)
	if err != nil {
		return err
	}
	g, hs := nums[0], nums[1:]

	e, err := ctx.exploiter(c)
	if err != nil {
		return err
	}
	rc, cancel := ctx.runContext()
	defer cancel()
	for _, h := range hs {
		if len(hs) > 1 {
			heading("Recovering log of %s", config.Hex(h))
		}
		res, err := e.Recover(rc, pFactors, qFactors, g, h)
		if err != nil {
			return err
		}
		if !ctx.quiet {
			fmt.Fprintf(ctx.out, "# p = %s\n# q = %s\n", config.Hex(res.P.P), config.Hex(res.Q.P))
		}
		fmt.Fprintf(ctx.out, "x = %s\n", config.Hex(res.X))
	}
	return nil
}

// ./nobus simulate [--params FILE | -b bits -s smoothness] [-g G]
func (ctx *bootContext) simulateCommandHandler(c *cli.Context) error {
	g, err := config.ParseInt(c.String("generator"))
	if err != nil {
		return err
	}
	rc, cancel := ctx.runContext()
	defer cancel()

	var ps *paramgen.Params
	var rnd io.Reader
	if file := c.String("params"); file != config.NULL {
		if ps, err = config.LoadParams(file); err != nil {
			return err
		}
	} else {
		var seed *int64
		if c.IsSet("seed") {
			s := c.Int64("seed")
			seed = &s
		}
		gen, err := ctx.generator(seed)
		if err != nil {
			return err
		}
		heading("Generating %d-bit backdoor, %d-bit smoothness", c.Int("bits"), c.Int("smoothness"))
		if ps, err = gen.Params(rc, c.Int("bits"), c.Int("smoothness")); err != nil {
			return err
		}
		if seed != nil {
			// reproducible exchange as well
			rnd = rand.New(rand.NewSource(gen.State.Int63()))
		}
	}

	e, err := ctx.exploiter(c)
	if err != nil {
		return err
	}
	heading("Intercepting exchange over n %s", crypto.Fingerprint(ps.N))
	session := exploit.Session{
		Cipher:  c.String("cipher"),
		Message: []byte(c.String("message")),
	}
	exchange, ic, err := e.Simulate(rc, ps, g, rnd, session)
	if err != nil {
		return err
	}
	w := ctx.out
	fmt.Fprintf(w, "n = %s\n", config.Hex(ps.N))
	fmt.Fprintf(w, "g = %s\n", config.Hex(g))
	fmt.Fprintf(w, "alice = 0x%x\n", exchange.AlicePub)
	fmt.Fprintf(w, "bob = 0x%x\n", exchange.BobPub)
	fmt.Fprintf(w, "x = %s\n", config.Hex(ic.X))
	fmt.Fprintf(w, "key = 0x%x\n", ic.Secret)
	fmt.Fprintf(w, "ciphertext = 0x%x\n", exchange.Ciphertext)
	fmt.Fprintf(w, "plaintext = %q\n", ic.Plaintext)
	return nil
}

// ./nobus pollard [--retries N] [--seed N] g h p
func (ctx *bootContext) pollardCommandHandler(c *cli.Context) error {
	nums, err := parseArgs(c.Args().Slice())
	if err != nil || len(nums) != 3 {
		return argsError(c, err)
	}
	g, h, p := nums[0], nums[1], nums[2]
	retries := ctx.conf.Retries
	if c.IsSet("retries") {
		retries = c.Int("retries")
	}
	seed := c.Int64("seed")
	if !c.IsSet("seed") {
		state, err := paramgen.NewEntropyState()
		if err != nil {
			return err
		}
		seed = state.Seed()
	}
	order := new(big.Int).Sub(p, big.NewInt(1))
	order.Rsh(order, 1)

	rc, cancel := ctx.runContext()
	defer cancel()
	rnd := rand.New(rand.NewSource(seed))
	x, err := dlog.PollardRetry(rc, g, h, p, order, retries, rnd, ctx.observer())
	if err != nil {
		return err
	}
	fmt.Fprintf(ctx.out, "x = %s\n", config.Hex(x))
	return nil
}

// ./nobus bsgs g h p
func (ctx *bootContext) bsgsCommandHandler(c *cli.Context) error {
	nums, err := parseArgs(c.Args().Slice())
	if err != nil || len(nums) != 3 {
		return argsError(c, err)
	}
	bs, err := dlog.NewBabySteps(nums[0], nums[2], nil, ctx.conf.TableLimit)
	if err != nil {
		return err
	}
	x, err := bs.Solve(nums[1])
	if err != nil {
		return err
	}
	fmt.Fprintf(ctx.out, "x = %s\n", config.Hex(x))
	return nil
}

// ./nobus pohlig g h p f1,f2,...
func (ctx *bootContext) pohligCommandHandler(c *cli.Context) error {
	args := c.Args().Slice()
	if len(args) != 4 {
		return commandHelp(c)
	}
	nums, err := parseArgs(args[:3])
	if err != nil {
		return argsError(c, err)
	}
	factors, err := config.ParseInts(args[3])
	if err != nil {
		return argsError(c, err)
	}
	rc, cancel := ctx.runContext()
	defer cancel()
	x, err := ctx.solver(ctx.conf.Workers).Solve(rc, nums[0], nums[1], nums[2], factors)
	if err != nil {
		return err
	}
	fmt.Fprintf(ctx.out, "x = %s\n", config.Hex(x))
	return nil
}

// ./nobus crt a1,a2,... m1,m2,...
func (ctx *bootContext) crtCommandHandler(c *cli.Context) error {
	if c.NArg() != 2 {
		return commandHelp(c)
	}
	as, err := config.ParseInts(c.Args().Get(0))
	if err != nil {
		return argsError(c, err)
	}
	ms, err := config.ParseInts(c.Args().Get(1))
	if err != nil {
		return argsError(c, err)
	}
	if len(as) != len(ms) {
		return argsError(c, fmt.Errorf("%d remainders but %d moduli", len(as), len(ms)))
	}
	residues := make([]dlog.Residue, len(as))
	for i := range as {
		residues[i] = dlog.Residue{A: as[i], M: ms[i]}
	}
	x, err := dlog.CRT(residues)
	if err != nil {
		return err
	}
	fmt.Fprintf(ctx.out, "x = %s\n", config.Hex(x))
	return nil
}

// ./nobus csc [-o FILE]
func (ctx *bootContext) cscCommandHandler(c *cli.Context) error {
	return config.CreateConfigTemplate(getOutputArg(c))
}

func parseArgs(args []string) ([]*big.Int, error) {
	nums := make([]*big.Int, len(args))
	for i, a := range args {
		n, err := config.ParseInt(a)
		if err != nil {
			return nil, err
		}
		nums[i] = n
	}
	return nums, nil
}

func getOutputArg(c *cli.Context) string {
	output := c.String("output")
	if output != config.NULL && !strings.Contains(output, ".") {
		output += ".ini"
	}
	return output
}

func argsError(c *cli.Context, err error) error {
	if err == nil {
		return commandHelp(c)
	}
	return cli.Exit(fmt.Sprintf("%s: %v", c.Command.Name, err), 2)
}

func commandHelp(c *cli.Context) error {
	cli.ShowCommandHelp(c, c.Command.Name)
	return cli.Exit("", 2)
}
