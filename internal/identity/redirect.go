package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/tartampluch/go-quickevent/internal/config"
)

// callbackResult carries one captured loopback redirect.
type callbackResult struct {
	code  string
	state string
}

// redirectListener is the one-shot loopback HTTP server that receives the
// OAuth authorization code. It serves exactly one flow: the first callback
// carrying a code is delivered on results and the listener is then useless.
type redirectListener struct {
	Port    string
	results chan callbackResult
}

func newRedirectListener(port string) *redirectListener {
	return &redirectListener{
		Port:    port,
		results: make(chan callbackResult, config.ChannelBufferSize),
	}
}

// Listen starts the loopback server and blocks until a callback arrives or
// the context is cancelled. The expected state is verified by the caller;
// the listener only captures what the browser delivered.
func (l *redirectListener) Listen(ctx context.Context) (callbackResult, error) {
	if l.Port == "" {
		return callbackResult{}, errors.New(config.ErrPortRequired)
	}

	mux := http.NewServeMux()
	mux.HandleFunc(config.OAuthCallbackPath, l.handleCallback)

	srv := &http.Server{
		Addr:         config.LocalhostBindAddr + config.AddrSeparator + l.Port,
		Handler:      mux,
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: config.ServerWriteTimeout,
		IdleTimeout:  config.ServerIdleTimeout,
	}

	serverError := make(chan error, config.ChannelBufferSize)

	go func() {
		slog.Info(config.MsgListenerReady,
			config.LogKeyComponent, config.CompIdentity,
			config.LogKeyPort, l.Port,
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverError <- err
		}
	}()

	shutdown := func() {
		slog.Info(config.MsgListenerStop, config.LogKeyComponent, config.CompIdentity)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Warn(config.ErrServerShutdown,
				config.LogKeyComponent, config.CompIdentity,
				config.LogKeyError, err,
			)
		}
	}

	select {
	case <-ctx.Done():
		shutdown()
		return callbackResult{}, fmt.Errorf("%s: %w", config.ErrCtxCancelled, ctx.Err())

	case err := <-serverError:
		return callbackResult{}, fmt.Errorf("%s: %w", config.ErrServerStartup, err)

	case res := <-l.results:
		shutdown()
		return res, nil
	}
}

// handleCallback captures the code and state query parameters and confirms
// to the browser. Requests without a code (user denied, provider error) are
// delivered too so the flow can fail fast instead of timing out.
func (l *redirectListener) handleCallback(w http.ResponseWriter, r *http.Request) {
	res := callbackResult{
		code:  r.URL.Query().Get(paramCode),
		state: r.URL.Query().Get(paramState),
	}

	w.Header().Set(config.HeaderContentType, config.MimeTextHTML)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(config.HTMLAuthDone)); err != nil {
		slog.Warn(config.ErrServerShutdown,
			config.LogKeyComponent, config.CompIdentity,
			config.LogKeyError, err,
		)
	}

	// Non-blocking: only the first callback matters.
	select {
	case l.results <- res:
	default:
	}
}

const (
	paramCode  = "code"
	paramState = "state"
)
