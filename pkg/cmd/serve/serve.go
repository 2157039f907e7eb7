package serve

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stleox/logtrace/pkg/app"
	"github.com/stleox/logtrace/pkg/cmd/common"
)

type response struct {
	Result string `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

// NewRouter exposes controller over HTTP.
func NewRouter(controller app.Controller) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("OK")); err != nil {
			logrus.WithError(err).Error("logtrace couldn't answer /healthcheck")
		}
	})

	r.Route("/v1", func(r chi.Router) {
		r.Get("/request", func(w http.ResponseWriter, r *http.Request) {
			itemID := r.URL.Query().Get("itemId")
			if itemID == "" {
				writeJSON(w, http.StatusBadRequest, response{Error: "missing itemId"})
				return
			}
			out, err := controller.Request(r.Context(), itemID)
			if err != nil {
				writeJSON(w, http.StatusInternalServerError, response{Error: err.Error()})
				return
			}
			writeJSON(w, http.StatusOK, response{Result: out})
		})
		r.Get("/no-log", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, response{Result: controller.NoLog()})
		})
	})
	return r
}

func writeJSON(w http.ResponseWriter, status int, body response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logrus.WithError(err).Error("logtrace couldn't write response")
	}
}

func New(vp *viper.Viper) *cobra.Command {
	serve := &cobra.Command{
		Use:   "serve",
		Short: "Serve the traced order graph over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			// init main context of `serve`
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			stack, err := common.NewStack(vp, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer stack.Close()

			addr := stack.Options.Serve.Addr
			srv := &http.Server{
				Addr:              addr,
				Handler:           NewRouter(stack.Controller),
				ReadHeaderTimeout: 5 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				logrus.Infof("logtrace listening on %s", addr)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			logrus.Info("logtrace shutting down gracefully...")
			shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
			defer stop()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logrus.WithError(err).Error("logtrace shutdown error")
			}
			return nil
		},
	}

	flags := serve.Flags()
	flags.String("addr", ":8080", "Address to listen on")
	if err := vp.BindPFlag("serve.addr", flags.Lookup("addr")); err != nil {
		logrus.WithError(err).Warn("logtrace couldn't bind flag --addr")
	}
	return serve
}
