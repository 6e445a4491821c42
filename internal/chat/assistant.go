package chat

import "context"

// Prompt is everything the assistant needs to answer one message.
type Prompt struct {
	Message string
	// Context is the page or flow the user asked from; it selects the
	// topic hint.
	Context string
	Topic   Topic
	// FileURL and FileName are set when the user attached a document or
	// image.
	FileURL  string
	FileName string
	// FileText is extracted document text, when extraction succeeded.
	FileText string
	// FileNote replaces FileText when extraction failed or produced
	// nothing; it tells the model to acknowledge the document anyway.
	FileNote string
}

// Assistant produces a reply for one prompt.
type Assistant interface {
	Answer(ctx context.Context, p Prompt) (string, error)
}
