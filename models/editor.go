package models

// EditorDocument describes the document an OnlyOffice editor opens
type EditorDocument struct {
	FileType string `json:"fileType"`
	Key      string `json:"key"`
	Title    string `json:"title"`
	URL      string `json:"url"`
	Token    string `json:"token,omitempty"`
}

// EditorCustomization holds OnlyOffice UI options
type EditorCustomization struct {
	ForceSave bool   `json:"forcesave"`
	UITheme   string `json:"uiTheme"`
	Zoom      int    `json:"zoom"`
}

// EditorSettings holds the editorConfig section of an OnlyOffice config
type EditorSettings struct {
	CallbackURL   string               `json:"callbackUrl"`
	Customization *EditorCustomization `json:"customization,omitempty"`
	Token         string               `json:"token,omitempty"`
}

// EditorConfig is the full config handed to the OnlyOffice document editor
type EditorConfig struct {
	Document     EditorDocument `json:"document"`
	EditorConfig EditorSettings `json:"editorConfig"`
	Exp          int64          `json:"exp"`
	Width        string         `json:"width"`
	Height       string         `json:"height"`
	Type         string         `json:"type"`
	DocumentType string         `json:"documentType"`
	Token        string         `json:"token"`
}

// EditorCallback is the body OnlyOffice posts to the callback URL
type EditorCallback struct {
	Status int    `json:"status"`
	URL    string `json:"url"`
	Key    string `json:"key"`
	Token  string `json:"token"`
}

// IsFinalSave reports whether the callback status carries a document to save.
// 2 and 3 are ready/save-error, 6 and 7 are force-save/force-save-error.
func (c EditorCallback) IsFinalSave() bool {
	switch c.Status {
	case 2, 3, 6, 7:
		return true
	default:
		return false
	}
}
