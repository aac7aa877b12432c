package decode

import (
	"io"
	"net/http"
	"net/url"
	"os"

	"golang.org/x/xerrors"
)

// openReader opens a local path, file:// URI or http(s):// URI for backends
// that decode from an io.Reader.
func openReader(uri string) (io.ReadCloser, error) {
	u, err := url.Parse(uri)
	if err != nil || u.Scheme == "" || len(u.Scheme) == 1 {
		// Plain path, or a Windows drive letter.
		return os.Open(uri)
	}

	switch u.Scheme {
	case "file":
		return os.Open(u.Path)
	case "http", "https":
		resp, err := http.Get(uri)
		if err != nil {
			return nil, xerrors.Errorf("fetching %s: %w", uri, err)
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, xerrors.Errorf("fetching %s: %s", uri, resp.Status)
		}
		return resp.Body, nil
	default:
		return nil, xerrors.Errorf("scheme %q: %w", u.Scheme, errNotSupported)
	}
}
