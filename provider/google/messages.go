package google

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/loomkit/loom"
)

// convertMessages converts loom messages to genai contents. Gemini has no
// dedicated system or tool roles: system prompts travel as user content and
// tool results as user messages carrying function responses.
func convertMessages(messages []loom.Message) ([]*genai.Content, error) {
	// Function responses are keyed by function name, not call id, so track
	// the name behind every call id seen earlier in the conversation.
	callNames := make(map[string]string)

	var contents []*genai.Content
	for _, msg := range messages {
		role := "user"
		if msg.Role == loom.RoleAssistant {
			role = "model"
		}

		var parts []*genai.Part
		if msg.HasParts() {
			converted, err := convertParts(msg.Parts)
			if err != nil {
				return nil, err
			}
			parts = converted
		} else if msg.Content != "" {
			parts = append(parts, &genai.Part{Text: msg.Content})
		}

		for _, tc := range msg.ToolCalls {
			callNames[tc.ID] = tc.Name
			var args map[string]any
			json.Unmarshal([]byte(tc.Arguments), &args)
			parts = append(parts, &genai.Part{
				FunctionCall: &genai.FunctionCall{
					Name: tc.Name,
					Args: args,
				},
			})
		}

		for _, tr := range msg.ToolResults {
			var result map[string]any
			if err := json.Unmarshal([]byte(tr.Content), &result); err != nil || result == nil {
				result = map[string]any{"result": tr.Content}
			}
			if tr.IsError {
				result["error"] = true
			}
			name := callNames[tr.ToolCallID]
			if name == "" {
				name = tr.ToolCallID
			}
			parts = append(parts, &genai.Part{
				FunctionResponse: &genai.FunctionResponse{
					Name:     name,
					Response: result,
				},
			})
		}

		if len(parts) > 0 {
			contents = append(contents, &genai.Content{
				Role:  role,
				Parts: parts,
			})
		}
	}
	return contents, nil
}

func convertParts(parts []loom.ContentPart) ([]*genai.Part, error) {
	var result []*genai.Part
	for _, part := range parts {
		switch part.Type {
		case loom.ContentPartTypeText:
			if part.Text != "" {
				result = append(result, &genai.Part{Text: part.Text})
			}
		case loom.ContentPartTypeImage:
			switch {
			case part.Base64 != "":
				data, err := base64.StdEncoding.DecodeString(part.Base64)
				if err != nil {
					return nil, fmt.Errorf("decode image data: %w", err)
				}
				mimeType := part.MimeType
				if mimeType == "" {
					mimeType = "image/jpeg"
				}
				result = append(result, &genai.Part{
					InlineData: &genai.Blob{
						Data:     data,
						MIMEType: mimeType,
					},
				})
			case strings.HasPrefix(part.ImageURL, "gs://"):
				result = append(result, &genai.Part{
					FileData: &genai.FileData{
						FileURI:  part.ImageURL,
						MIMEType: part.MimeType,
					},
				})
			case part.ImageURL != "":
				return nil, fmt.Errorf("unsupported image url %q: gemini accepts inline data or gs:// uris", part.ImageURL)
			}
		}
	}
	return result, nil
}
