package tools

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/h2non/filetype"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/slack-go/slack"

	"toolgate/internal/directory"
	"toolgate/internal/domain"
)

// maxUploadBytes caps files pulled from disk or URL for upload.
const maxUploadBytes = 50 << 20

// SlackService wraps the Slack Web API. It also implements
// directory.Lister, feeding the workspace directory cache.
type SlackService struct {
	api    *slack.Client
	client *retryablehttp.Client
}

// NewSlackService builds the adapter. An empty token produces auth failures
// at call time, reported through the envelope like any upstream failure.
func NewSlackService(token string, client *retryablehttp.Client) *SlackService {
	return &SlackService{api: slack.New(token), client: client}
}

// Tools returns the Slack tool pairs.
func (s *SlackService) Tools() []Tool {
	return []Tool{
		{
			Def: domain.ToolDefinition{
				Name:        "send_file_to_slack",
				Description: "Upload a file to a Slack channel",
				Params: []domain.ParameterSpec{
					{Name: "file_path", Kind: domain.KindString, Description: "Path to the file or URL to upload", Required: true},
					{Name: "chat_id", Kind: domain.KindString, Description: "Slack channel ID", Required: true},
					{Name: "title", Kind: domain.KindString, Description: "Title for the file", Required: true},
					{Name: "ts", Kind: domain.KindString, Description: "Optional thread timestamp for threaded upload"},
				},
			},
			Handler: domain.HandlerFunc(s.sendFile),
		},
	}
}

func (s *SlackService) sendFile(ctx context.Context, args domain.Args) (any, error) {
	source := argString(args, "file_path")
	data, name, err := s.loadFile(ctx, source)
	if err != nil {
		return nil, err
	}

	mime := "application/octet-stream"
	if kind, err := filetype.Match(data); err == nil && kind != filetype.Unknown {
		mime = kind.MIME.Value
	}

	summary, err := s.Upload(ctx, argString(args, "chat_id"), argString(args, "title"), name, data, argString(args, "ts"))
	if err != nil {
		return nil, fmt.Errorf("slack upload failed: %w", err)
	}
	return map[string]any{
		"file_id":   summary.ID,
		"title":     summary.Title,
		"channel":   argString(args, "chat_id"),
		"mime_type": mime,
		"size":      len(data),
	}, nil
}

// Upload pushes data into a channel, optionally threaded.
func (s *SlackService) Upload(ctx context.Context, channel, title, filename string, data []byte, threadTS string) (*slack.FileSummary, error) {
	return s.api.UploadFileV2Context(ctx, slack.UploadFileV2Parameters{
		Channel:         channel,
		Title:           title,
		Filename:        filename,
		FileSize:        len(data),
		Reader:          bytes.NewReader(data),
		ThreadTimestamp: threadTS,
	})
}

// loadFile reads the upload source: a URL is downloaded, anything else is a
// local path.
func (s *SlackService) loadFile(ctx context.Context, source string) ([]byte, string, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, source, nil)
		if err != nil {
			return nil, "", fmt.Errorf("invalid file URL: %w", err)
		}
		resp, err := s.client.Do(req)
		if err != nil {
			return nil, "", fmt.Errorf("could not download file: %w", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, "", fmt.Errorf("could not download file: status %d", resp.StatusCode)
		}
		data, err := io.ReadAll(io.LimitReader(resp.Body, maxUploadBytes))
		if err != nil {
			return nil, "", fmt.Errorf("could not read file: %w", err)
		}
		name := filepath.Base(strings.SplitN(source, "?", 2)[0])
		return data, name, nil
	}

	data, err := os.ReadFile(source)
	if err != nil {
		return nil, "", fmt.Errorf("could not read file: %w", err)
	}
	return data, filepath.Base(source), nil
}

// ListUsers implements directory.Lister.
func (s *SlackService) ListUsers(ctx context.Context) ([]directory.User, error) {
	users, err := s.api.GetUsersContext(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]directory.User, 0, len(users))
	for _, u := range users {
		out = append(out, directory.User{
			ID:       u.ID,
			Name:     u.Name,
			RealName: u.RealName,
			Email:    u.Profile.Email,
			Deleted:  u.Deleted,
			IsBot:    u.IsBot,
		})
	}
	return out, nil
}

// ListChannels implements directory.Lister, following pagination cursors.
func (s *SlackService) ListChannels(ctx context.Context) ([]directory.Channel, error) {
	var out []directory.Channel
	params := &slack.GetConversationsParameters{
		Types:           []string{"public_channel", "private_channel"},
		ExcludeArchived: true,
		Limit:           200,
	}
	for {
		channels, cursor, err := s.api.GetConversationsContext(ctx, params)
		if err != nil {
			return nil, err
		}
		for _, c := range channels {
			out = append(out, directory.Channel{
				ID:          c.ID,
				Name:        c.Name,
				Topic:       c.Topic.Value,
				IsPrivate:   c.IsPrivate,
				MemberCount: c.NumMembers,
			})
		}
		if cursor == "" {
			return out, nil
		}
		params.Cursor = cursor
	}
}
