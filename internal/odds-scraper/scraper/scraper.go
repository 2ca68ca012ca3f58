// Package scraper coleta partidas agendadas e odds do Flashscore usando um
// Chrome headless controlado via chromedp.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/radieske/odds-tracker/internal/odds"
)

const (
	selFilterTab  = ".filters__tab"
	selAccordion  = `button[data-testid="wcl-accordionButton"]`
	selMatchLinks = ".event__match a[href]"
	selStartTime  = ".duelParticipant__startTime"
	selHost       = ".duelParticipant__home .participant__participantNameWrapper"
	selGuest      = ".duelParticipant__away .participant__participantNameWrapper"
	selLeague     = ".tournamentHeader__country"

	userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/142.0.0.0 Safari/537.36"
)

// oddsLayout descreve uma das duas tabelas de odds que a página de partida pode ter
type oddsLayout struct {
	wrapper   string
	row       string
	bookmaker string
	odd       string
}

var (
	// aba "Odds" com todas as casas
	oddsTabLayout = oddsLayout{
		wrapper:   ".oddsTab__tableWrapper",
		row:       ".oddsTab__tableWrapper .ui-table__row",
		bookmaker: ".oddsCell__bookmaker a",
		odd:       ".oddsCell__odd span",
	}
	// resumo exibido quando a aba não existe
	summaryLayout = oddsLayout{
		wrapper:   ".oddsRowContent",
		row:       ".oddsRowContent .odds",
		bookmaker: ".bookmaker a",
		odd:       ".cellWrapper .oddsValueInner",
	}
)

func (l oddsLayout) extractJS() string {
	return fmt.Sprintf(`Array.from(document.querySelectorAll(%q)).map(r => {
	const a = r.querySelector(%q);
	return {
		bookmaker: a ? (a.getAttribute("title") || "") : "",
		values: Array.from(r.querySelectorAll(%q)).map(e => (e.textContent || "").trim()).filter(Boolean),
	};
})`, l.row, l.bookmaker, l.odd)
}

var (
	jsClickScheduled = fmt.Sprintf(`(() => {
	const tab = Array.from(document.querySelectorAll(%q)).find(t => (t.textContent || "").includes("Scheduled"));
	if (!tab || tab.offsetParent === null) return false;
	tab.click();
	return true;
})()`, selFilterTab)

	jsMatchHrefs = fmt.Sprintf(`Array.from(document.querySelectorAll(%q)).map(a => a.getAttribute("href") || "")`, selMatchLinks)

	jsToggleAccordions = fmt.Sprintf(`(async () => {
	const buttons = Array.from(document.querySelectorAll(%q));
	for (const b of buttons) {
		b.click();
		await new Promise(r => setTimeout(r, 100));
	}
	return buttons.length;
})()`, selAccordion)

	jsClickOddsTab = `(() => {
	const b = Array.from(document.querySelectorAll("button")).find(b => (b.textContent || "").includes("Odds") && b.offsetParent !== null);
	if (!b) return false;
	b.click();
	return true;
})()`
)

var errScheduledTab = errors.New("scheduled tab not found")

// Scraper lê o Flashscore. Os métodos de página recebem um contexto criado por
// NewBrowser; Run cuida disso sozinho.
type Scraper struct {
	baseURL string
	timeout time.Duration
	log     *zap.Logger
	loc     *time.Location

	// OnError é chamado com o estágio que falhou ("links", "match")
	OnError func(stage string)
}

func New(baseURL string, timeout time.Duration, log *zap.Logger) *Scraper {
	return &Scraper{baseURL: baseURL, timeout: timeout, log: log, loc: time.Local}
}

// NewBrowser inicia um Chrome headless e devolve o contexto da aba.
// O cancel fecha a aba e encerra o processo do navegador.
func (s *Scraper) NewBrowser(ctx context.Context) (context.Context, context.CancelFunc, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.UserAgent(userAgent),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	bctx, cancelTab := chromedp.NewContext(allocCtx, chromedp.WithLogf(s.log.Sugar().Debugf))
	cancel := func() {
		cancelTab()
		cancelAlloc()
	}

	// o primeiro Run aloca o navegador; não pode ser feito sob um contexto com timeout
	if err := chromedp.Run(bctx); err != nil {
		cancel()
		return nil, nil, fmt.Errorf("start browser: %w", err)
	}
	return bctx, cancel, nil
}

// step executa as ações com o timeout de espera configurado
func (s *Scraper) step(ctx context.Context, actions ...chromedp.Action) error {
	tctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return chromedp.Run(tctx, actions...)
}

// ScheduledLinks abre a página inicial, seleciona a aba "Scheduled" e coleta os
// links das partidas. Depois alterna todos os acordeões de liga e coleta de
// novo, para pegar as ligas que estavam fechadas.
func (s *Scraper) ScheduledLinks(ctx context.Context) ([]string, error) {
	s.log.Info("starting scraping match links", zap.String("url", s.baseURL))

	if err := s.step(ctx,
		chromedp.Navigate(s.baseURL),
		chromedp.WaitVisible(selFilterTab, chromedp.ByQuery),
	); err != nil {
		return nil, fmt.Errorf("open %s: %w", s.baseURL, err)
	}

	var clicked bool
	if err := s.step(ctx, chromedp.Evaluate(jsClickScheduled, &clicked)); err != nil {
		return nil, fmt.Errorf("click scheduled tab: %w", err)
	}
	if !clicked {
		return nil, errScheduledTab
	}

	var first []string
	if err := s.step(ctx,
		chromedp.Sleep(3*time.Second),
		chromedp.Evaluate(jsMatchHrefs, &first),
	); err != nil {
		return nil, fmt.Errorf("collect match links: %w", err)
	}

	// sem timeout de passo: o número de ligas varia muito
	var toggled int
	if err := chromedp.Run(ctx, chromedp.Evaluate(jsToggleAccordions, &toggled, awaitPromise)); err != nil {
		return nil, fmt.Errorf("toggle league headers: %w", err)
	}

	var second []string
	if err := s.step(ctx,
		chromedp.Sleep(500*time.Millisecond),
		chromedp.Evaluate(jsMatchHrefs, &second),
	); err != nil {
		return nil, fmt.Errorf("collect match links: %w", err)
	}

	links := resolveLinks(s.baseURL, append(first, second...))
	s.log.Info("found match links",
		zap.Int("links", len(links)),
		zap.Int("league_headers", toggled),
	)
	return links, nil
}

func awaitPromise(p *runtime.EvaluateParams) *runtime.EvaluateParams {
	return p.WithAwaitPromise(true)
}

// ScrapeMatch lê horário, participantes, liga e a tabela de odds de uma partida.
// Retorna false quando a partida não tem nenhuma casa com odds.
func (s *Scraper) ScrapeMatch(ctx context.Context, link string) (odds.RawMatchSnapshot, bool, error) {
	var p matchPage

	if err := s.step(ctx,
		chromedp.Navigate(link),
		chromedp.WaitVisible(selStartTime, chromedp.ByQuery),
		chromedp.TextContent(selStartTime, &p.StartTime, chromedp.ByQuery),
		chromedp.TextContent(selHost, &p.Host, chromedp.ByQuery),
		chromedp.TextContent(selGuest, &p.Guest, chromedp.ByQuery),
		chromedp.TextContent(selLeague, &p.League, chromedp.ByQuery),
	); err != nil {
		return odds.RawMatchSnapshot{}, false, fmt.Errorf("read match header: %w", err)
	}

	var hasOddsTab bool
	if err := s.step(ctx, chromedp.Evaluate(jsClickOddsTab, &hasOddsTab)); err != nil {
		return odds.RawMatchSnapshot{}, false, fmt.Errorf("open odds tab: %w", err)
	}
	layout := summaryLayout
	if hasOddsTab {
		layout = oddsTabLayout
	}

	if err := s.step(ctx,
		chromedp.WaitVisible(layout.wrapper, chromedp.ByQuery),
		chromedp.Evaluate(layout.extractJS(), &p.Rows),
	); err != nil {
		return odds.RawMatchSnapshot{}, false, fmt.Errorf("read odds table: %w", err)
	}

	return buildSnapshot(p, s.loc)
}

// Run executa um ciclo completo: links agendados e depois cada partida.
// Falha em uma partida é registrada e o ciclo segue.
func (s *Scraper) Run(ctx context.Context) ([]odds.RawMatchSnapshot, error) {
	bctx, cancel, err := s.NewBrowser(ctx)
	if err != nil {
		s.fail("browser")
		return nil, err
	}
	defer cancel()

	links, err := s.ScheduledLinks(bctx)
	if err != nil {
		s.fail("links")
		return nil, err
	}

	s.log.Info("scraping matches data", zap.Int("links", len(links)))

	out := make([]odds.RawMatchSnapshot, 0, len(links))
	for _, link := range links {
		if ctx.Err() != nil {
			return out, ctx.Err()
		}
		m, ok, err := s.ScrapeMatch(bctx, link)
		if err != nil {
			s.log.Warn("error scraping match", zap.String("url", link), zap.Error(err))
			s.fail("match")
			continue
		}
		if ok {
			out = append(out, m)
		}
	}

	s.log.Info("scraping matches completed", zap.Int("matches", len(out)))
	return out, nil
}

func (s *Scraper) fail(stage string) {
	if s.OnError != nil {
		s.OnError(stage)
	}
}
