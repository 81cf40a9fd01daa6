package fs

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path"
)

// Download is a file, or a directory streamed as a zip archive, ready to send to the browser.
type Download struct {
	// Name is the suggested file name for the attachment.
	Name        string
	ContentType string
	IsDir       bool

	path string
}

// PrepareDownload checks that path can be downloaded.
func (a *Access) PrepareDownload(p string) (*Download, error) {
	info, err := a.stat(opDownload, p)
	if err != nil {
		return nil, err
	}

	name := info.Name()
	if info.IsDir() {
		return &Download{Name: name + ".zip", ContentType: "application/zip", IsDir: true, path: p}, nil
	}
	if !info.Mode().IsRegular() {
		return nil, newError(opDownload, p, ErrNotAFile)
	}
	return &Download{Name: name, ContentType: mimeType(name), path: p}, nil
}

// WriteDownload streams d to w.
func (a *Access) WriteDownload(w io.Writer, d *Download) error {
	if !d.IsDir {
		data, err := a.FS.ReadFile(d.path)
		if err != nil {
			return ioError(opDownload, d.path, err)
		}
		_, err = w.Write(data)
		return err
	}

	zw := zip.NewWriter(w)
	if err := a.archive(zw, d.path, ""); err != nil {
		zw.Close()
		return err
	}
	return zw.Close()
}

// archive adds the tree under dir to zw with names relative to prefix.
// Symlinks are skipped so a link cycle cannot recurse forever.
func (a *Access) archive(zw *zip.Writer, dir, prefix string) error {
	infos, err := a.FS.ReadDir(dir)
	if err != nil {
		return ioError(opDownload, dir, err)
	}

	for _, info := range infos {
		if info.Mode()&os.ModeSymlink != 0 {
			continue
		}

		name := path.Join(prefix, info.Name())
		full := a.FS.Join(dir, info.Name())

		header, err := zip.FileInfoHeader(info)
		if err != nil {
			return fmt.Errorf("failed to create zip header: %w", err)
		}
		header.Name = name

		if info.IsDir() {
			header.Name += "/"
			if _, err := zw.CreateHeader(header); err != nil {
				return err
			}
			if err := a.archive(zw, full, name); err != nil {
				return err
			}
			continue
		}

		header.Method = zip.Deflate
		writer, err := zw.CreateHeader(header)
		if err != nil {
			return err
		}
		data, err := a.FS.ReadFile(full)
		if err != nil {
			return ioError(opDownload, full, err)
		}
		if _, err := writer.Write(data); err != nil {
			return err
		}
	}
	return nil
}
