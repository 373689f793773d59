package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/redis/go-redis/v9"

	"github.com/halcyon-id/go-authz-endpoint/authfw"
	"github.com/halcyon-id/go-authz-endpoint/clients"
	"github.com/halcyon-id/go-authz-endpoint/consent"
	"github.com/halcyon-id/go-authz-endpoint/flow"
	"github.com/halcyon-id/go-authz-endpoint/internal/config"
	"github.com/halcyon-id/go-authz-endpoint/scopemeta"
	"github.com/halcyon-id/go-authz-endpoint/server"
	"github.com/halcyon-id/go-authz-endpoint/sessiondata"
)

func main() {
	for {
		if err := run(); err != nil {
			log.Fatalf("Error running server: %s\n", err)
			time.Sleep(1 * time.Second)
		} else {
			break
		}
	}
	log.Printf("Server stopped\n")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Recovered from panic: %v\n", r)
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	c := config.New()
	displayAppname(c.GetAppName())

	handler, err := buildServer(c)
	if err != nil {
		return err
	}
	httpServer := &http.Server{Addr: c.GetPort(), Handler: handler}
	go listenAndServe(httpServer)
	waitForStopSignal()
	returnError = shutdown(httpServer)
	return returnError
}

// buildServer wires the repos, the strategy variants selected by
// configuration, the flow controller and the HTTP server.
func buildServer(c config.Config) (http.Handler, error) {
	ctx := context.Background()
	ttl := c.GetSessionDataTTL()

	var (
		sessionData sessiondata.Repo
		authResults authfw.ResultRepo
		err         error
	)
	if redisURL := c.GetRedisURL(); redisURL != "" {
		opts, err := redis.ParseURL(redisURL)
		if err != nil {
			return nil, fmt.Errorf("parsing REDIS_URL: %w", err)
		}
		client := redis.NewClient(opts)
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("redis ping: %w", err)
		}
		if sessionData, err = sessiondata.NewRedisRepo(client, ttl); err != nil {
			return nil, err
		}
		if authResults, err = authfw.NewRedisResultRepo(client, ttl); err != nil {
			return nil, err
		}
	} else {
		sessionData = sessiondata.NewInMemoryRepo(ttl)
		authResults = authfw.NewInMemoryResultRepo(ttl)
	}

	clientRepo := clients.NewInMemoryRepo()
	if c.GetEnv() == "DEV" {
		if err := seedDevClient(ctx, clientRepo, c); err != nil {
			return nil, err
		}
	}
	validator, err := clients.NewValidationService(clientRepo)
	if err != nil {
		return nil, err
	}

	var meta scopemeta.Service
	switch c.GetScopeMetadataMode() {
	case scopemeta.ModeAPIResource:
		meta = scopemeta.NewAPIResourceService(nil)
	default:
		meta = scopemeta.NewLegacyService(c.GetConsentExemptScopes())
	}

	approvals := consent.NewInMemoryApprovalStore()
	evaluator, err := consent.NewEvaluator(approvals, meta)
	if err != nil {
		return nil, err
	}

	var (
		authenticator authfw.Authenticator
		callback      server.CallbackAuthenticator
	)
	switch c.GetAuthenticatorMode() {
	case authfw.ModeOIDC:
		oidcAuth, err := authfw.NewOIDCAuthenticator(ctx, authfw.OIDCConfig{
			IssuerURL:    c.GetOIDCIssuerURL(),
			ClientID:     c.GetOIDCClientID(),
			ClientSecret: c.GetOIDCClientSecret(),
			RedirectURL:  c.GetOIDCRedirectURL(),
		}, authResults)
		if err != nil {
			return nil, fmt.Errorf("upstream OIDC provider: %w", err)
		}
		authenticator = oidcAuth
		callback = oidcAuth
	default:
		authenticator = authfw.NewCommonAuthAuthenticator(c.GetLoginPageURL())
	}

	controller, err := flow.NewController(flow.Services{
		SessionData:   sessionData,
		AuthResults:   authResults,
		Clients:       validator,
		Approvals:     approvals,
		Consent:       evaluator,
		Authenticator: authenticator,
	}, c.GetConsentPageURL(), flow.WithErrorPageURL(c.GetErrorPageURL()))
	if err != nil {
		return nil, err
	}

	return server.New(c, controller, callback)
}

// seedDevClient registers a sample client so a dev deployment can run a full
// flow without a provisioning step.
func seedDevClient(ctx context.Context, repo clients.Repo, c config.Config) error {
	client := &clients.Client{
		ID:              "sample-app",
		ApplicationName: "Sample App",
		Status:          clients.StatusActive,
		RedirectURIs: []string{
			c.GetBaseURL() + "/callback",
			"http://localhost:3000/callback",
		},
	}
	if err := client.SetSecret("sample-secret"); err != nil {
		return err
	}
	return repo.Upsert(ctx, client)
}

func listenAndServe(server *http.Server) error {
	log.Printf("Server listening on %s\n", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
