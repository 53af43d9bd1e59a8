// Package classifier runs the external sign classification process.
//
// Every call launches one process, hands it the absolute image path as its last
// argument and turns whatever the process does (exit, crash, hang, garbage output)
// into exactly one domain.ClassificationResult.
package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Rrens/sign-gateway/internal/config"
	"github.com/Rrens/sign-gateway/internal/domain"
)

const (
	DefaultTimeout        = 60 * time.Second
	DefaultKillGrace      = 3 * time.Second
	DefaultMaxOutputBytes = 10 << 20
)

// Options configure a Classifier. A zero Timeout means no bound.
type Options struct {
	Command        string
	Args           []string
	Timeout        time.Duration
	KillGrace      time.Duration
	MaxOutputBytes int64
	Env            []string
}

// OptionsFromConfig converts the classifier section of the configuration
func OptionsFromConfig(cfg config.ClassifierConfig) Options {
	return Options{
		Command:        cfg.Command,
		Args:           cfg.Args,
		Timeout:        cfg.Timeout,
		KillGrace:      cfg.KillGrace,
		MaxOutputBytes: cfg.MaxOutputBytes,
		Env:            cfg.Env,
	}
}

// Classifier invokes the external classifier, one process per call.
// It holds no per-call state and is safe for concurrent use.
type Classifier struct {
	opts Options
}

// New creates a classifier
func New(opts Options) *Classifier {
	if opts.KillGrace <= 0 {
		opts.KillGrace = DefaultKillGrace
	}
	if opts.MaxOutputBytes <= 0 {
		opts.MaxOutputBytes = DefaultMaxOutputBytes
	}
	if opts.Timeout < 0 {
		opts.Timeout = DefaultTimeout
	}
	return &Classifier{opts: opts}
}

// Options returns the effective options
func (c *Classifier) Options() Options {
	return c.opts
}

// payload is what the classifier writes to stdout
type payload struct {
	Success     *bool     `json:"success"`
	Predictions []string  `json:"predictions"`
	Confidences []float64 `json:"confidences"`
	Error       string    `json:"error"`
}

// Classify runs one classification pass over imagePath.
//
// ctx only scopes logging: a caller going away does not stop the process,
// the configured timeout does.
func (c *Classifier) Classify(ctx context.Context, imagePath string) domain.ClassificationResult {
	base := zerolog.Ctx(ctx)
	if base.GetLevel() == zerolog.Disabled {
		base = &log.Logger
	}
	logger := base.With().Str("component", "classifier").Logger()

	absPath, err := filepath.Abs(imagePath)
	if err != nil {
		return failure(domain.FailureSpawn, "failed to launch: "+err.Error())
	}

	args := make([]string, 0, len(c.opts.Args)+1)
	args = append(args, c.opts.Args...)
	args = append(args, absPath)

	cmd := exec.Command(c.opts.Command, args...)
	if len(c.opts.Env) > 0 {
		cmd.Env = append(cmd.Environ(), c.opts.Env...)
	}
	setProcessGroup(cmd)

	out := newCappedOutput(c.opts.MaxOutputBytes)
	cmd.Stdout = out.Stdout()
	cmd.Stderr = out.Stderr()
	// Bounds how long Wait keeps draining pipes held open by orphaned children.
	cmd.WaitDelay = c.opts.KillGrace

	start := time.Now()
	if err := cmd.Start(); err != nil {
		logger.Error().Err(err).Str("command", c.opts.Command).Msg("failed to launch classifier")
		return failure(domain.FailureSpawn, "failed to launch: "+err.Error())
	}

	pid := cmd.Process.Pid
	logger.Debug().Int("pid", pid).Str("image", absPath).Msg("classifier started")

	inv := newInvocation()
	exited := make(chan struct{})

	go func() {
		waitErr := cmd.Wait()
		close(exited)

		if !inv.claim() {
			logger.Warn().Int("pid", pid).Dur("elapsed", time.Since(start)).
				Msg("ignoring classifier exit after timeout")
			return
		}
		res := c.decode(cmd, waitErr, out)
		logger.Info().
			Int("pid", pid).
			Int("exit_code", exitCode(cmd)).
			Bool("success", res.Success).
			Dur("elapsed", time.Since(start)).
			Msg("classifier finished")
		inv.deliver(res)
	}()

	if c.opts.Timeout > 0 {
		timer := time.AfterFunc(c.opts.Timeout, func() {
			if !inv.claim() {
				return
			}
			logger.Warn().Int("pid", pid).Dur("timeout", c.opts.Timeout).Msg("classifier timed out, terminating")
			c.terminate(cmd, exited)
			inv.deliver(failure(domain.FailureTimeout, timeoutMessage(c.opts.Timeout)))
		})
		defer timer.Stop()
	}

	return inv.wait()
}

func (c *Classifier) decode(cmd *exec.Cmd, waitErr error, out *cappedOutput) domain.ClassificationResult {
	stdout, stderr := out.Bytes()

	if out.Overflowed() {
		return failure(domain.FailureProcess,
			fmt.Sprintf("classifier output exceeded %d bytes", c.opts.MaxOutputBytes))
	}

	if cmd.ProcessState == nil {
		return failure(domain.FailureProcess, "classifier wait failed: "+waitErr.Error())
	}

	if code := cmd.ProcessState.ExitCode(); code != 0 {
		msg := string(bytes.TrimSpace(stderr))
		if msg == "" {
			if code < 0 {
				msg = "classifier terminated: " + cmd.ProcessState.String()
			} else {
				msg = "classifier exited with code " + strconv.Itoa(code)
			}
		}
		return failure(domain.FailureProcess, msg)
	}

	return parseOutput(stdout)
}

func parseOutput(stdout []byte) domain.ClassificationResult {
	raw := bytes.TrimSpace(stdout)

	var p payload
	if err := json.Unmarshal(raw, &p); err != nil || p.Success == nil {
		return failure(domain.FailureParse, "failed to parse output: "+string(raw))
	}

	if !*p.Success {
		msg := p.Error
		if msg == "" {
			msg = "classifier reported failure"
		}
		return failure(domain.FailureProcess, msg)
	}

	if p.Predictions == nil {
		p.Predictions = []string{}
	}
	if p.Confidences == nil {
		p.Confidences = []float64{}
	}
	if len(p.Predictions) != len(p.Confidences) {
		return failure(domain.FailureParse, "failed to parse output: "+string(raw))
	}

	return domain.ClassificationResult{
		Success:     true,
		Predictions: p.Predictions,
		Confidences: p.Confidences,
	}
}

// terminate asks the process group to stop, then kills it after the grace period.
// It returns once the process has been reaped.
func (c *Classifier) terminate(cmd *exec.Cmd, exited <-chan struct{}) {
	select {
	case <-exited:
		return
	default:
	}

	if err := signalTerminate(cmd); err != nil {
		log.Debug().Err(err).Msg("terminate signal failed")
	}

	grace := time.NewTimer(c.opts.KillGrace)
	defer grace.Stop()

	select {
	case <-exited:
		return
	case <-grace.C:
	}

	log.Warn().Int("pid", cmd.Process.Pid).Msg("classifier ignored terminate signal, killing")
	if err := signalKill(cmd); err != nil {
		log.Debug().Err(err).Msg("kill signal failed")
	}
	<-exited
}

func timeoutMessage(d time.Duration) string {
	return "prediction timeout (>" + strconv.FormatFloat(d.Seconds(), 'f', -1, 64) + "s)"
}

func exitCode(cmd *exec.Cmd) int {
	if cmd.ProcessState == nil {
		return -1
	}
	return cmd.ProcessState.ExitCode()
}

func failure(kind domain.FailureKind, msg string) domain.ClassificationResult {
	return domain.ClassificationResult{
		Success:     false,
		Predictions: []string{},
		Confidences: []float64{},
		Error:       msg,
		Kind:        kind,
	}
}

// invocation resolves exactly once. The first claim wins and must deliver;
// later claims fail and their outcome is dropped.
type invocation struct {
	resolved atomic.Bool
	result   chan domain.ClassificationResult
}

func newInvocation() *invocation {
	return &invocation{result: make(chan domain.ClassificationResult, 1)}
}

func (inv *invocation) claim() bool {
	return inv.resolved.CompareAndSwap(false, true)
}

func (inv *invocation) deliver(res domain.ClassificationResult) {
	inv.result <- res
}

func (inv *invocation) wait() domain.ClassificationResult {
	return <-inv.result
}
