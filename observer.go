package main

import (
	"fmt"
	"os"

	log "github.com/Lafeng/nobus/glog"
	"github.com/Lafeng/nobus/progress"
	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
)

var headingColor = color.New(color.FgCyan, color.Bold)

// heading goes to stderr so stdout stays parseable.
func heading(format string, args ...interface{}) {
	if boot.quiet {
		return
	}
	headingColor.Fprintln(os.Stderr, fmt.Sprintf(format, args...))
}

func (ctx *bootContext) observer() progress.Observer {
	if ctx.quiet {
		return nil
	}
	return logEvent
}

func logEvent(e progress.Event) {
	switch e.Kind {
	case progress.SmoothFactorDrawn:
		if log.V(log.LV_DRAW) {
			log.Infof("Drew factor %#x, product now %d bits", e.Value, e.Bits)
		}
	case progress.ClosingWidthAdjusted:
		if log.V(log.LV_CLOSING) {
			log.Infof("Closing attempt %s: width adjusted to %d bits", humanize.Comma(int64(e.Attempt)), e.Bits)
		}
	case progress.ClosingAttemptFailed:
		if log.V(log.LV_CLOSING) {
			log.Infof("Closing attempt %s: not prime", humanize.Comma(int64(e.Attempt)))
		}
	case progress.SmoothPrimeFound:
		if log.V(log.LV_BITS) {
			log.Infof("Found %d-bit smooth prime after %s closing attempts", e.Bits, humanize.Comma(int64(e.Attempt)))
		}
	case progress.SmoothRestarted:
		if log.V(log.LV_RETRY) {
			log.Infof("Closing search stalled after %s attempts, redrawing smooth factors (%s restart)", humanize.Comma(int64(e.Attempt)), humanize.Ordinal(e.Index))
		}
	case progress.ParamsRegenerated:
		if !log.V(log.LV_RETRY) {
			break
		}
		if e.Err != nil {
			log.Infof("Regenerating, %s pair failed: %v", humanize.Ordinal(e.Attempt), e.Err)
		} else {
			log.Infof("Regenerating, %s pair gave a %d-bit modulus", humanize.Ordinal(e.Attempt), e.Bits)
		}
	case progress.ParamsFound:
		if log.V(log.LV_PROGRESS) {
			log.Infof("Found %d-bit modulus on the %s pair", e.Bits, humanize.Ordinal(e.Attempt))
		}
	case progress.FactorSolved:
		if log.V(log.LV_FACTOR) {
			log.Infof("[%d/%d] x = %#x (mod %#x)", e.Index, e.Total, e.Value, e.Modulus)
		}
	case progress.RhoRetry:
		if log.V(log.LV_RETRY) {
			log.Infof("Rho attempt %d/%d modulo %#x failed: %v", e.Attempt, e.Total, e.Modulus, e.Err)
		}
	case progress.RhoCollision:
		if log.V(log.LV_TRACE) {
			log.Infof("Rho collision after %s iterations", humanize.Comma(e.Iterations))
		}
	case progress.FallbackBabyGiant:
		if log.V(log.LV_FALLBACK) {
			log.Infof("[%d/%d] falling back to baby-step giant-step modulo %#x", e.Index, e.Total, e.Modulus)
		}
	case progress.HalfSolved:
		if log.V(log.LV_PROGRESS) {
			name := "p"
			if e.Index == 2 {
				name = "q"
			}
			log.Infof("Discrete logarithm modulo %s: %#x (mod %#x)", name, e.Value, e.Modulus)
		}
	case progress.Recovered:
		if log.V(log.LV_PROGRESS) {
			log.Infof("Recovered x = %#x", e.Value)
		}
	default:
		if log.V(log.LV_TRACE) {
			log.Infoln("Event", e.Kind)
		}
	}
}
