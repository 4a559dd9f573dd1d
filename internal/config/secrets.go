package config

import "os"

// Secrets holds upstream credentials. They come only from the environment
// and are never written to the config file or any log line.
type Secrets struct {
	OpenWeatherKey  string
	GoogleSearchKey string
	GoogleSearchCX  string
	SlackBotToken   string
	OpenAIKey       string
	RapidAPIKey     string
	OdooURL         string
	OdooDB          string
	OdooLogin       string
	OdooPassword    string
}

// SecretsFromEnv reads every known credential from the environment. Missing
// values are left empty; each adapter reports a configuration failure at
// call time rather than at startup, so unrelated tools keep working.
func SecretsFromEnv() Secrets {
	return Secrets{
		OpenWeatherKey:  os.Getenv("OPENWEATHER_KEY"),
		GoogleSearchKey: os.Getenv("CUSTOM_SEARCH_API_KEY"),
		GoogleSearchCX:  os.Getenv("CUSTOM_SEARCH_ID"),
		SlackBotToken:   os.Getenv("SLACK_BOT_TOKEN"),
		OpenAIKey:       os.Getenv("OPENAI_API_KEY"),
		RapidAPIKey:     os.Getenv("RAPIDAPI_KEY"),
		OdooURL:         os.Getenv("ODOO_URL"),
		OdooDB:          os.Getenv("ODOO_DB"),
		OdooLogin:       os.Getenv("ODOO_LOGIN"),
		OdooPassword:    os.Getenv("ODOO_PASSWORD"),
	}
}
