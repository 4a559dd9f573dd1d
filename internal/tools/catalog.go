package tools

import (
	"github.com/hashicorp/go-retryablehttp"

	"toolgate/internal/archive"
	"toolgate/internal/config"
	"toolgate/internal/directory"
	"toolgate/internal/domain"
)

// Services bundles the leaf adapters the catalog is built from.
type Services struct {
	Weather   *WeatherService
	Web       *WebService
	Messages  *MessageService
	Directory *directory.Directory
	Slack     *SlackService
	Odoo      *OdooService
	Amazon    *AmazonService
	OpenAI    *OpenAIService
	Docs      *DocsService
	Utility   *UtilityService
}

// NewServices wires every adapter from config, secrets and the shared
// collaborators. The Slack adapter is passed in because it doubles as the
// directory lister and is built before the directory cache.
func NewServices(cfg *domain.Config, secrets config.Secrets, client *retryablehttp.Client, store *archive.Store, dir *directory.Directory, slackSvc *SlackService) *Services {
	openAISvc := NewOpenAIService(secrets.OpenAIKey, cfg.OpenAI)

	return &Services{
		Weather:   NewWeatherService(client, secrets.OpenWeatherKey),
		Web:       NewWebService(client, secrets.GoogleSearchKey, secrets.GoogleSearchCX, store, cfg.Shortener.BaseURL, cfg.Upstream.MaxConcurrentFetches),
		Messages:  NewMessageService(store),
		Directory: dir,
		Slack:     slackSvc,
		Odoo:      NewOdooService(client, secrets.OdooURL, secrets.OdooDB, secrets.OdooLogin, secrets.OdooPassword),
		Amazon:    NewAmazonService(client, secrets.RapidAPIKey),
		OpenAI:    openAISvc,
		Docs:      NewDocsService(slackSvc, openAISvc, cfg.Files.Root),
		Utility:   NewUtilityService(openAISvc),
	}
}

// Catalog returns every tool group in its stable listing order.
func (s *Services) Catalog() [][]Tool {
	return [][]Tool{
		s.Weather.Tools(),
		s.Web.Tools(),
		s.Messages.Tools(),
		DirectoryTools(s.Directory),
		s.Slack.Tools(),
		s.Odoo.Tools(),
		s.Amazon.Tools(),
		s.Docs.Tools(),
		s.Utility.Tools(),
	}
}
