package clipboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/text/language"
)

func TestEditorLabelPluralises(t *testing.T) {
	assert.Equal(t, "1 conversation marked", EditorLabel(language.English, 1))
	assert.Equal(t, "3 conversations marked", EditorLabel(language.English, 3))
	assert.Equal(t, "2 Konversationen markiert", EditorLabel(language.German, 2))
}
