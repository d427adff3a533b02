package models

// ExportRecord is one manifest row describing where a remote file ended up
// on local disk. The csv tags are the manifest column names.
type ExportRecord struct {
	FileName           string `csv:"FileName"`
	RemoteRelativeURL  string `csv:"RemoteRelativeUrl"`
	RemoteParentFolder string `csv:"RemoteParentFolder"`
	LocalFileName      string `csv:"LocalFileName"`
}
