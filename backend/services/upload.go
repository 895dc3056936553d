package services

import "io"

// Upload is a file submitted with a form. Size is the declared length of Content.
type Upload struct {
	Filename string
	Size     int64
	Content  io.Reader
}

func (u *Upload) Ext() string { return fileExt(u.Filename) }
