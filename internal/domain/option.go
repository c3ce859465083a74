package domain

// OptionDefinition is a persisted key/value entry owned by plugins via
// the setOption/getOption/removeOption protocol verbs.
type OptionDefinition struct {
	Name        string
	Value       string
	Description string
	Type        string
}

// HelpTopic is a persisted help entry managed through the
// addHelp/updateHelp/deleteHelp protocol verbs. Rendering of help text
// is outside the core; the core only stores and serves topics.
type HelpTopic struct {
	Topic   string
	Usage   string
	Content string
}
