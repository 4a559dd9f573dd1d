package tools

import (
	"context"

	"toolgate/internal/directory"
	"toolgate/internal/domain"
)

// DirectoryTools exposes the cached workspace directory and its refreshers.
func DirectoryTools(dir *directory.Directory) []Tool {
	return []Tool{
		{
			Def: domain.ToolDefinition{
				Name:        "get_users",
				Description: "Retrieve user information from the workspace directory",
				Params: []domain.ParameterSpec{
					{Name: "user_id", Kind: domain.KindString, Description: "Optional specific user ID to retrieve"},
				},
			},
			Handler: domain.HandlerFunc(func(ctx context.Context, args domain.Args) (any, error) {
				users := dir.Users(argString(args, "user_id"))
				return map[string]any{"users": users, "count": len(users)}, nil
			}),
		},
		{
			Def: domain.ToolDefinition{
				Name:        "get_channels",
				Description: "Retrieve channel information from the workspace directory",
				Params: []domain.ParameterSpec{
					{Name: "id", Kind: domain.KindString, Description: "Optional specific channel ID to retrieve"},
				},
			},
			Handler: domain.HandlerFunc(func(ctx context.Context, args domain.Args) (any, error) {
				channels := dir.Channels(argString(args, "id"))
				return map[string]any{"channels": channels, "count": len(channels)}, nil
			}),
		},
		{
			Def: domain.ToolDefinition{
				Name:        "update_slack_users",
				Description: "Sync user data from the Slack workspace",
			},
			Handler: domain.HandlerFunc(func(ctx context.Context, args domain.Args) (any, error) {
				n, err := dir.RefreshUsers(ctx)
				if err != nil {
					return nil, err
				}
				return map[string]any{"updated_users": n}, nil
			}),
		},
		{
			Def: domain.ToolDefinition{
				Name:        "update_slack_conversations",
				Description: "Sync channel/conversation data from the Slack workspace",
			},
			Handler: domain.HandlerFunc(func(ctx context.Context, args domain.Args) (any, error) {
				n, err := dir.RefreshChannels(ctx)
				if err != nil {
					return nil, err
				}
				return map[string]any{"updated_channels": n}, nil
			}),
		},
	}
}
