package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"

	"github.com/google/uuid"
	"github.com/pkg/browser"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// InstalledAppFlow grants a token through the browser consent page and a
// redirect to a loopback listener
type InstalledAppFlow struct {
	config      *oauth2.Config
	port        int
	out         io.Writer
	openBrowser func(url string) error
	log         *zap.Logger
}

// NewInstalledAppFlow creates a flow listening on 127.0.0.1:port. Port 0
// picks a free port.
func NewInstalledAppFlow(config *oauth2.Config, port int, out io.Writer, log *zap.Logger) *InstalledAppFlow {
	return &InstalledAppFlow{
		config:      config,
		port:        port,
		out:         out,
		openBrowser: browser.OpenURL,
		log:         log,
	}
}

type callback struct {
	code string
	err  error
}

// Grant implements Granter
func (f *InstalledAppFlow) Grant(ctx context.Context) (*oauth2.Token, error) {
	listener, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", f.port))
	if err != nil {
		return nil, fmt.Errorf("failed to listen for the OAuth redirect: %w", err)
	}

	cfg := *f.config
	cfg.RedirectURL = fmt.Sprintf("http://%s/", listener.Addr().String())
	state := uuid.NewString()

	results := make(chan callback, 1)
	server := &http.Server{Handler: callbackHandler(state, results)}
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			f.log.Error("OAuth redirect listener failed", zap.Error(err))
		}
	}()
	defer server.Close()

	authURL := cfg.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
	fmt.Fprintf(f.out, "Please visit this URL to authorize this application:\n%s\n", authURL)
	if err := f.openBrowser(authURL); err != nil {
		f.log.Warn("Failed to open browser", zap.Error(err))
	}

	var res callback
	select {
	case res = <-results:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if res.err != nil {
		return nil, res.err
	}

	token, err := cfg.Exchange(ctx, res.code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}

	f.log.Info("User authorization granted")
	return token, nil
}

func callbackHandler(state string, results chan<- callback) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()

		var res callback
		switch {
		case query.Get("error") != "":
			res.err = fmt.Errorf("authorization denied: %s", query.Get("error"))
		case query.Get("state") != state:
			res.err = errors.New("authorization state mismatch")
		case query.Get("code") == "":
			res.err = errors.New("authorization code missing")
		default:
			res.code = query.Get("code")
		}

		if res.err != nil {
			http.Error(w, res.err.Error(), http.StatusBadRequest)
		} else {
			fmt.Fprintln(w, "The authentication flow has completed. You may close this window.")
		}

		select {
		case results <- res:
		default:
		}
	})
}
