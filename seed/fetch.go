package seed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/pkg/errors"
)

// DefaultSource is the public indian banks dataset.
const DefaultSource = "https://raw.githubusercontent.com/Amanskywalker/indian_banks/master/bank_branches.csv"

// Open returns a reader for the seed source which is either
// an http(s) url or a path to a local file.
func Open(ctx context.Context, source string) (io.ReadCloser, error) {
	if !strings.HasPrefix(source, "http://") && !strings.HasPrefix(source, "https://") {
		f, err := os.Open(source)
		if err != nil {
			return nil, errors.Wrap(err, "could not open seed file")
		}
		return f, nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "could not download seed file")
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("could not download seed file: %s", resp.Status)
	}
	return resp.Body, nil
}
