package loop

import (
	"fmt"

	"github.com/Ad4m2017/agent-cli-sub000/internal/chatmodel"
)

// buildInitialMessages seeds the conversation: an optional system message,
// then a user message whose content is a plain string when there are no
// attachments, or an ordered list of parts (text, then a fenced block per
// file, then a label and image_url part per image) otherwise.
func buildInitialMessages(systemPrompt, userText string, files, images []chatmodel.Attachment) []chatmodel.Message {
	var messages []chatmodel.Message

	if systemPrompt != "" {
		messages = append(messages, chatmodel.Message{Role: chatmodel.RoleSystem, Content: systemPrompt})
	}

	if len(files) == 0 && len(images) == 0 {
		messages = append(messages, chatmodel.Message{Role: chatmodel.RoleUser, Content: userText})
		return messages
	}

	parts := []chatmodel.ContentPart{{Type: chatmodel.ContentText, Text: userText}}
	for _, f := range files {
		parts = append(parts, chatmodel.ContentPart{
			Type: chatmodel.ContentText,
			Text: fmt.Sprintf("File: %s\n```\n%s\n```", f.Path, f.Content),
		})
	}
	for _, img := range images {
		parts = append(parts, chatmodel.ContentPart{Type: chatmodel.ContentText, Text: fmt.Sprintf("Image: %s", img.Path)})
		parts = append(parts, chatmodel.ContentPart{Type: chatmodel.ContentImageURL, ImageURL: img.DataURL})
	}

	messages = append(messages, chatmodel.Message{Role: chatmodel.RoleUser, Parts: parts})
	return messages
}
