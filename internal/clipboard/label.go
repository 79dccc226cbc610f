package clipboard

import (
	"golang.org/x/text/feature/plural"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const editorLabelKey = "wcf.clipboard.label.conversation.marked"

func init() {
	_ = message.Set(language.English, editorLabelKey, plural.Selectf(1, "%d",
		"=1", "1 conversation marked",
		"other", "%d conversations marked",
	))
	_ = message.Set(language.German, editorLabelKey, plural.Selectf(1, "%d",
		"=1", "1 Konversation markiert",
		"other", "%d Konversationen markiert",
	))
}

// EditorLabel renders the clipboard header for count marked conversations.
func EditorLabel(tag language.Tag, count int) string {
	return message.NewPrinter(tag).Sprintf(editorLabelKey, count)
}
