package models

import "time"

// File is a document handle inside a library folder. Content is not held
// here; it is fetched from the store when the file is saved.
type File struct {
	Name              string
	ServerRelativeURL string
	ParentFolder      string
	Size              int64
	ModTime           time.Time
}

// Folder is a resolved container node in a remote library tree.
type Folder struct {
	Name              string
	ServerRelativeURL string
	Files             []File
	Folders           []Folder
}
