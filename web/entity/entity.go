// Package entity defines the request and response bodies of the filedock HTTP API.
package entity

// Msg is the body of every non-object reply: a human-readable message and a
// stable machine-readable kind for errors.
type Msg struct {
	Message string `json:"message"`
	Kind    string `json:"kind,omitempty"`
}

type LoginForm struct {
	Username      string `json:"username" form:"username"`
	Password      string `json:"password" form:"password"`
	TwoFactorCode string `json:"twoFactorCode" form:"twoFactorCode"`
}

type SessionInfo struct {
	LoggedIn bool   `json:"loggedIn"`
	Username string `json:"username,omitempty"`
}

type UserInfo struct {
	Id       int    `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

type SystemUpdates struct {
	Content string `json:"content"`
}

// Entry is a file or folder with its path relative to the upload root.
type Entry struct {
	Name     string `json:"name"`
	Path     string `json:"path"`
	Size     int64  `json:"size,omitempty"`
	Modified int64  `json:"modified,omitempty"`
	Mime     string `json:"mime,omitempty"`
}

type Listing struct {
	Folders []Entry `json:"folders"`
	Files   []Entry `json:"files"`
}

type CreateFolderForm struct {
	FolderName string `json:"foldername"`
	BaseFolder string `json:"base_folder"`
}

type DeleteForm struct {
	Path string `json:"path"`
}

type RenameForm struct {
	Path    string `json:"path"`
	NewName string `json:"new_name"`
	Type    string `json:"type"`
}

type MoveForm struct {
	SrcPath    string `json:"src_path"`
	DestFolder string `json:"dest_folder"`
}

type MarkdownPreview struct {
	HTML string `json:"html"`
}

type StorageUsage struct {
	Total       uint64  `json:"total"`
	Used        uint64  `json:"used"`
	Free        uint64  `json:"free"`
	UsedPercent float64 `json:"usedPercent"`
	TotalText   string  `json:"totalText"`
	FreeText    string  `json:"freeText"`
}

type Logs struct {
	Logs []string `json:"logs"`
}
