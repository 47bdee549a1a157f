package data

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/torontodeveloper/co2-emission-ML/pkg/logging"
)

// MissingTokens are the raw cell values read as missing.
var MissingTokens = []string{"", "NA", "NaN", "nan", "<nil>"}

// Fetcher retrieves sources over plain HTTP GET, or from disk when the URL is a
// path or a file:// URL. It performs no retries and keeps no cache.
type Fetcher struct {
	Client *http.Client
	Logger *slog.Logger
}

// NewFetcher returns a Fetcher. A nil client uses http.DefaultClient.
func NewFetcher(client *http.Client, logger *slog.Logger) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &Fetcher{Client: client, Logger: logging.OrNop(logger)}
}

// Fetch downloads src and parses it into a DataFrame with canonical key names.
func (f *Fetcher) Fetch(ctx context.Context, src Source) (dataframe.DataFrame, error) {
	start := time.Now()
	body, err := f.open(ctx, src)
	if err != nil {
		return dataframe.DataFrame{}, err
	}
	defer body.Close()

	df, err := ParseCSV(body)
	if err != nil {
		return dataframe.DataFrame{}, NewFetchError(src.Name, "parse csv", err)
	}
	df, err = renameColumns(df, src.Rename)
	if err != nil {
		return dataframe.DataFrame{}, NewFetchError(src.Name, "rename columns", err)
	}

	rows, cols := df.Dims()
	f.Logger.Info("fetched source",
		"source", src.Name,
		"url", src.URL,
		"rows", rows,
		"cols", cols,
		"duration", time.Since(start),
	)
	return df, nil
}

func (f *Fetcher) open(ctx context.Context, src Source) (io.ReadCloser, error) {
	if src.URL == "" {
		return nil, NewFetchError(src.Name, "no url configured", nil)
	}
	if !strings.HasPrefix(src.URL, "http://") && !strings.HasPrefix(src.URL, "https://") {
		file, err := os.Open(strings.TrimPrefix(src.URL, "file://"))
		if err != nil {
			return nil, NewFetchError(src.Name, "open file", err)
		}
		return file, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL, nil)
	if err != nil {
		return nil, NewFetchError(src.Name, "build request", err)
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, NewFetchError(src.Name, "GET "+src.URL, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, NewFetchError(src.Name, "GET "+src.URL,
			fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode))
	}
	return resp.Body, nil
}

// ParseCSV reads a comma-delimited table with a header row. Column types are
// detected from the values; columns with no values at all become Float.
func ParseCSV(r io.Reader) (dataframe.DataFrame, error) {
	df := dataframe.ReadCSV(r,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(true),
		dataframe.DefaultType(series.Float),
		dataframe.NaNValues(MissingTokens),
	)
	if df.Err != nil {
		return df, df.Err
	}
	if df.Nrow() == 0 {
		return df, ErrEmptyTable
	}
	return df, nil
}

func renameColumns(df dataframe.DataFrame, rename map[string]string) (dataframe.DataFrame, error) {
	if len(rename) == 0 {
		return df, nil
	}
	present := make(map[string]bool, df.Ncol())
	for _, name := range df.Names() {
		present[name] = true
	}
	for from, to := range rename {
		if !present[from] || from == to {
			continue
		}
		df = df.Rename(to, from)
		if df.Err != nil {
			return df, df.Err
		}
	}
	return df, nil
}
