package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	tasksapi "google.golang.org/api/tasks/v1"

	"github.com/bobuk/gcalagenda/internal/store"
)

const meetReadonlyScope = "https://www.googleapis.com/auth/meetings.space.readonly"

var oauthConfig *oauth2.Config

func initOAuthConfig(config *Config) {
	oauthConfig = &oauth2.Config{
		ClientID:     config.ClientID,
		ClientSecret: config.ClientSecret,
		Endpoint:     google.Endpoint,
		RedirectURL:  config.RedirectURL,
		Scopes:       []string{calendar.CalendarScope, tasksapi.TasksScope, meetReadonlyScope},
	}
}

type tokenStore interface {
	LoadToken(ctx context.Context, account string) (*oauth2.Token, error)
	SaveToken(ctx context.Context, account string, token *oauth2.Token) error
}

// getTokenFromWeb runs the authorization code flow with PKCE. The user opens
// the printed link and pastes back either the code or the whole redirect URL.
func getTokenFromWeb(ctx context.Context, config *oauth2.Config, in io.Reader, out io.Writer) (*oauth2.Token, error) {
	verifier := oauth2.GenerateVerifier()
	state := oauth2.GenerateVerifier()
	authURL := config.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.S256ChallengeOption(verifier))
	fmt.Fprintf(out, "🔗 Go to the following link in your browser then paste the "+
		"authorization code or the address you were redirected to: \n%v\n", authURL)

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("unable to read authorization code: %w", err)
	}
	code, err := authorizationCode(strings.TrimSpace(line), state)
	if err != nil {
		return nil, err
	}

	tok, err := config.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve token from web: %w", err)
	}
	return tok, nil
}

// authorizationCode accepts a bare code or a redirect URL carrying code and
// state parameters.
func authorizationCode(input, state string) (string, error) {
	if input == "" {
		return "", errors.New("authorization code is empty")
	}
	if !strings.Contains(input, "://") {
		return input, nil
	}

	redirect, err := url.Parse(input)
	if err != nil {
		return "", fmt.Errorf("invalid redirect address: %w", err)
	}
	query := redirect.Query()
	if reason := query.Get("error"); reason != "" {
		return "", fmt.Errorf("authorization denied: %s", reason)
	}
	if got := query.Get("state"); got != "" && got != state {
		return "", errors.New("authorization state mismatch")
	}
	code := query.Get("code")
	if code == "" {
		return "", errors.New("redirect address has no code")
	}
	return code, nil
}

// persistingTokenSource saves every token the wrapped source hands out that
// differs from the last one seen.
type persistingTokenSource struct {
	ctx     context.Context
	base    oauth2.TokenSource
	tokens  tokenStore
	account string

	mu   sync.Mutex
	last string
}

func (s *persistingTokenSource) Token() (*oauth2.Token, error) {
	token, err := s.base.Token()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if token.AccessToken != s.last {
		printVerbosely(3, "  🔄 Token refreshed for account %s.\n", s.account)
		if err := s.tokens.SaveToken(s.ctx, s.account, token); err != nil {
			return nil, fmt.Errorf("save refreshed token: %w", err)
		}
		s.last = token.AccessToken
	}
	return token, nil
}

func getClient(ctx context.Context, config *oauth2.Config, tokens tokenStore, accountName string) (*http.Client, error) {
	token, err := tokens.LoadToken(ctx, accountName)
	if errors.Is(err, store.ErrNoToken) {
		return nil, fmt.Errorf("no token found for account %s, run `gcalagenda login` first", accountName)
	}
	if err != nil {
		return nil, err
	}

	source := &persistingTokenSource{
		ctx:     ctx,
		base:    config.TokenSource(ctx, token),
		tokens:  tokens,
		account: accountName,
		last:    token.AccessToken,
	}
	return oauth2.NewClient(ctx, oauth2.ReuseTokenSource(token, source)), nil
}

func login(ctx context.Context, s *session) error {
	out := s.out
	fmt.Fprintf(out, "🚀 Logging in account %s...\n", s.config.Account)
	token, err := getTokenFromWeb(ctx, oauthConfig, s.in, out)
	if err != nil {
		return err
	}
	if err := s.store.SaveToken(ctx, s.config.Account, token); err != nil {
		return err
	}
	fmt.Fprintf(out, "✅ Account %s authorized\n", s.config.Account)
	return nil
}

func logout(ctx context.Context, s *session) error {
	if err := s.store.DeleteToken(ctx, s.config.Account); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "👋 Token of account %s removed\n", s.config.Account)
	return nil
}
