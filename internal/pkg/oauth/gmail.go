package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"golang.org/x/oauth2"
)

// Google's OAuth2 endpoints, declared here so we don't drag in the whole
// cloud SDK for two URLs.
var googleEndpoint = oauth2.Endpoint{
	AuthURL:  "https://accounts.google.com/o/oauth2/auth",
	TokenURL: "https://oauth2.googleapis.com/token",
}

const gmailAPIBase = "https://gmail.googleapis.com/gmail/v1/users/me"

// GmailMessage is the subset of a Gmail message the transaction scanner needs.
type GmailMessage struct {
	ID      string `json:"id"`
	Snippet string `json:"snippet"`
	Subject string
	From    string
	Date    string
}

type GmailOAuth struct {
	config *oauth2.Config
}

func NewGmailOAuth(clientID, clientSecret, redirectURI string) *GmailOAuth {
	return &GmailOAuth{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURI,
			Scopes:       []string{"https://www.googleapis.com/auth/gmail.readonly"},
			Endpoint:     googleEndpoint,
		},
	}
}

// GetAuthURL returns the consent page URL. Offline access is requested so we
// get a refresh token and can sync without the user present.
func (g *GmailOAuth) GetAuthURL(state string) string {
	return g.config.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"))
}

// Exchange trades the authorization code for tokens.
func (g *GmailOAuth) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	return g.config.Exchange(ctx, code)
}

// Refresh obtains a fresh access token from a stored refresh token.
func (g *GmailOAuth) Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	source := g.config.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	return source.Token()
}

// ListMessages returns ids of messages matching the query, newest first.
func (g *GmailOAuth) ListMessages(ctx context.Context, token *oauth2.Token, query string, maxResults int) ([]string, error) {
	client := g.config.Client(ctx, token)

	u := fmt.Sprintf("%s/messages?q=%s&maxResults=%d", gmailAPIBase, url.QueryEscape(query), maxResults)
	resp, err := client.Get(u)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("gmail api error: %s", string(body))
	}

	var result struct {
		Messages []struct {
			ID string `json:"id"`
		} `json:"messages"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode message list: %w", err)
	}

	ids := make([]string, 0, len(result.Messages))
	for _, m := range result.Messages {
		ids = append(ids, m.ID)
	}
	return ids, nil
}

// GetMessage fetches one message's metadata and snippet.
func (g *GmailOAuth) GetMessage(ctx context.Context, token *oauth2.Token, id string) (*GmailMessage, error) {
	client := g.config.Client(ctx, token)

	u := fmt.Sprintf("%s/messages/%s?format=metadata&metadataHeaders=Subject&metadataHeaders=From&metadataHeaders=Date", gmailAPIBase, id)
	resp, err := client.Get(u)
	if err != nil {
		return nil, fmt.Errorf("failed to get message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("gmail api error: %s", string(body))
	}

	var raw struct {
		ID      string `json:"id"`
		Snippet string `json:"snippet"`
		Payload struct {
			Headers []struct {
				Name  string `json:"name"`
				Value string `json:"value"`
			} `json:"headers"`
		} `json:"payload"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode message: %w", err)
	}

	msg := &GmailMessage{
		ID:      raw.ID,
		Snippet: raw.Snippet,
	}
	for _, h := range raw.Payload.Headers {
		switch h.Name {
		case "Subject":
			msg.Subject = h.Value
		case "From":
			msg.From = h.Value
		case "Date":
			msg.Date = h.Value
		}
	}
	return msg, nil
}
