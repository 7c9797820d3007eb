package channels

// Catalogue represents the top-level structure of channels.yaml
type Catalogue struct {
	Channels []ChannelProps `yaml:"channels"`
}

// ChannelProps contains the declared properties of one subscribed channel
type ChannelProps struct {
	ID    string `yaml:"id"`
	Title string `yaml:"title"`
	Genre string `yaml:"genre"`
}
