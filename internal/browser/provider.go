// internal/browser/provider.go
package browser

import (
	"context"
	"fmt"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/testlab/internal/config"
	"github.com/xkilldash9x/testlab/internal/driver"
)

// Provider owns one chromedp session's create-once/close lifecycle. It
// starts a local Chrome, or attaches to browser.remote_url when set. Like
// the sessions it hands out, a Provider is single-owner.
type Provider struct {
	cfg    config.Interface
	logger *zap.Logger

	allocCancel context.CancelFunc
	session     *Session
}

var _ driver.Provider = (*Provider)(nil)

func NewProvider(cfg config.Interface, logger *zap.Logger) *Provider {
	return &Provider{cfg: cfg, logger: logger.Named("browser")}
}

// Session returns the current session, creating it on first use.
func (p *Provider) Session(ctx context.Context) (driver.Session, error) {
	if p.session != nil {
		return p.session, nil
	}

	browserCfg := p.cfg.Browser()
	// The browser outlives ctx, which only bounds startup.
	var allocCtx context.Context
	if browserCfg.RemoteURL != "" {
		p.logger.Info("Attaching to remote browser.", zap.String("url", browserCfg.RemoteURL))
		allocCtx, p.allocCancel = chromedp.NewRemoteAllocator(context.Background(), browserCfg.RemoteURL)
	} else {
		p.logger.Info("Starting local browser.", zap.Bool("headless", browserCfg.Headless))
		allocCtx, p.allocCancel = chromedp.NewExecAllocator(context.Background(), AllocatorOptions(browserCfg)...)
	}

	tabCtx, tabCancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(p.logger.Sugar().Debugf))
	started := make(chan error, 1)
	go func() { started <- chromedp.Run(tabCtx) }()
	select {
	case err := <-started:
		if err != nil {
			tabCancel()
			p.shutdownAllocator()
			return nil, fmt.Errorf("failed to start browser: %w", err)
		}
	case <-ctx.Done():
		tabCancel()
		p.shutdownAllocator()
		return nil, fmt.Errorf("browser startup canceled: %w", ctx.Err())
	}

	s := NewSession(tabCtx, tabCancel, p.cfg, p.logger)
	s.onClose = func() { p.session = nil }

	viewport := browserCfg.Viewport
	if err := s.SetViewport(ctx, viewport.Width, viewport.Height); err != nil {
		_ = s.Close(ctx)
		p.shutdownAllocator()
		return nil, fmt.Errorf("failed to apply viewport: %w", err)
	}
	s.SetImplicitWait(p.cfg.Waits().Implicit)

	p.session = s
	p.logger.Info("Browser session created.", zap.String("session_id", s.ID()))
	return s, nil
}

// Close closes the session and the browser and clears the handle, so the
// next Session call starts over.
func (p *Provider) Close(ctx context.Context) error {
	if p.session != nil {
		if err := p.session.Close(ctx); err != nil {
			p.logger.Warn("Error closing browser session.", zap.Error(err))
		}
		p.session = nil
	}
	p.shutdownAllocator()
	return nil
}

func (p *Provider) shutdownAllocator() {
	if p.allocCancel != nil {
		p.allocCancel()
		p.allocCancel = nil
	}
}
