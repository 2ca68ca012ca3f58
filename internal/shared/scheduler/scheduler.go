// Package scheduler executa jobs periódicos a partir de expressões cron com
// campo de segundos (ex: "0 */30 * * * *").
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

type Job func(ctx context.Context)

type Scheduler struct {
	cron *cron.Cron
	log  *zap.Logger
	ctx  context.Context
}

// New cria o scheduler. Jobs que entram em panic são recuperados e uma nova
// execução é pulada enquanto a anterior ainda estiver rodando.
func New(ctx context.Context, log *zap.Logger) *Scheduler {
	cl := cronLogger{log.Sugar()}
	c := cron.New(
		cron.WithSeconds(),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	return &Scheduler{cron: c, log: log, ctx: ctx}
}

// Add registra um job nomeado
func (s *Scheduler) Add(name, spec string, job Job) error {
	if _, err := s.cron.AddFunc(spec, s.wrap(name, job)); err != nil {
		return fmt.Errorf("schedule %s (%q): %w", name, spec, err)
	}
	s.log.Info("job scheduled", zap.String("job", name), zap.String("spec", spec))
	return nil
}

func (s *Scheduler) wrap(name string, job Job) func() {
	return func() {
		if s.ctx.Err() != nil {
			return
		}
		start := time.Now()
		s.log.Info("running scheduled task", zap.String("job", name))
		job(s.ctx)
		s.log.Info("scheduled task finished", zap.String("job", name), zap.Duration("took", time.Since(start)))
	}
}

func (s *Scheduler) Start() { s.cron.Start() }

// Stop para o agendamento e espera os jobs em execução terminarem
func (s *Scheduler) Stop() context.Context { return s.cron.Stop() }

// cronLogger adapta o zap para a interface de log do cron
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
