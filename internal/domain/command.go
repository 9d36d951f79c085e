// internal/domain/command.go
package domain

// CommandName identifies one of the bot's chat commands.
type CommandName string

const (
	CommandBalance     CommandName = "balance"
	CommandTransfer    CommandName = "transfer"
	CommandLeaderboard CommandName = "leaderboard"
)

// User identifies a chat platform user as seen in an interaction.
type User struct {
	ID          string
	DisplayName string
}

// Command is one decoded interaction, pushed by an adapter into the router.
type Command struct {
	ID     string // Interaction ID, used for log correlation
	Name   CommandName
	Caller User

	// Transfer arguments. Target.ID is empty when no user was given.
	Target User
	Amount int64
}

// OptionType is the argument type of a command option.
type OptionType string

const (
	OptionUser    OptionType = "user"
	OptionInteger OptionType = "integer"
)

// CommandOption describes one argument of a command.
type CommandOption struct {
	Name        string
	Type        OptionType
	Description string
	Required    bool
}

// CommandDefinition is the static metadata registered with the chat platform.
type CommandDefinition struct {
	Name        CommandName
	Description string
	Options     []CommandOption
}

// CommandDefinitions returns the commands the bot exposes.
func CommandDefinitions() []CommandDefinition {
	return []CommandDefinition{
		{
			Name:        CommandBalance,
			Description: "Check your Rebels balance",
		},
		{
			Name:        CommandTransfer,
			Description: "Transfer Rebels to another user",
			Options: []CommandOption{
				{Name: "user", Type: OptionUser, Description: "User to send Rebels to", Required: true},
				{Name: "amount", Type: OptionInteger, Description: "Amount of Rebels to send", Required: true},
			},
		},
		{
			Name:        CommandLeaderboard,
			Description: "Show the 10 users with the highest balance",
		},
	}
}
