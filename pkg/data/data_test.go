package data

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gota/gota/series"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const grapherCSV = "Entity,Code,Year,Median age\n" +
	"France,FRA,2000,38.2\n" +
	"Germany,DEU,2000,\n" +
	"World,,2000,26.3\n"

func TestFetchHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/median-age.csv":
			w.Header().Set("Content-Type", "text/csv")
			_, _ = w.Write([]byte(grapherCSV))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	f := NewFetcher(srv.Client(), nil)

	t.Run("parses and renames keys", func(t *testing.T) {
		src := Source{Name: MedianAge, URL: srv.URL + "/median-age.csv", Rename: grapherKeys()}
		df, err := f.Fetch(context.Background(), src)
		require.NoError(t, err)

		assert.Equal(t, []string{KeyCountry, KeyISOCode, KeyYear, "Median age"}, df.Names())
		assert.Equal(t, 3, df.Nrow())
		assert.Equal(t, series.Int, df.Col(KeyYear).Type())
		assert.Equal(t, series.Float, df.Col("Median age").Type())
		assert.True(t, df.Col("Median age").Elem(1).IsNA())
		assert.True(t, df.Col(KeyISOCode).Elem(2).IsNA())
	})

	t.Run("non-200 is a fetch error", func(t *testing.T) {
		_, err := f.Fetch(context.Background(), Source{Name: "missing", URL: srv.URL + "/nope.csv"})
		require.Error(t, err)

		var fe *FetchError
		require.True(t, errors.As(err, &fe))
		assert.Equal(t, "missing", fe.Source)
		assert.ErrorIs(t, err, ErrUnexpectedStatus)
	})

	t.Run("canceled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := f.Fetch(ctx, Source{Name: "co2", URL: srv.URL + "/median-age.csv"})
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestFetchLocalFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "co2.csv")
	require.NoError(t, os.WriteFile(path, []byte("country,year,iso_code,co2\nFrance,2000,FRA,400.5\n"), 0o600))

	f := NewFetcher(nil, nil)
	for _, url := range []string{path, "file://" + path} {
		df, err := f.Fetch(context.Background(), Source{Name: "co2", URL: url})
		require.NoError(t, err)
		assert.Equal(t, 1, df.Nrow())
		assert.Equal(t, 400.5, df.Col("co2").Elem(0).Float())
	}

	_, err := f.Fetch(context.Background(), Source{Name: "co2", URL: filepath.Join(t.TempDir(), "absent.csv")})
	assert.Error(t, err)

	_, err = f.Fetch(context.Background(), Source{Name: "co2"})
	assert.Error(t, err)
}

func TestParseCSVEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	require.NoError(t, os.WriteFile(path, []byte("country,year\n"), 0o600))

	_, err := NewFetcher(nil, nil).Fetch(context.Background(), Source{Name: "empty", URL: path})
	assert.Error(t, err)
}

func TestSourcesWithURLs(t *testing.T) {
	s := DefaultSources().WithURLs(map[string]string{
		"co2":      "/tmp/co2.csv",
		MedianAge:  "/tmp/age.csv",
		Population: "",
	})
	assert.Equal(t, "/tmp/co2.csv", s.CO2.URL)
	assert.Equal(t, EnergyURL, s.Energy.URL)
	require.Len(t, s.Auxiliary, 5)
	assert.Equal(t, "/tmp/age.csv", s.Auxiliary[1].URL)
	assert.Equal(t, PopulationURL, s.Auxiliary[2].URL)
	assert.Equal(t, MedianAgeURL, DefaultSources().Auxiliary[1].URL, "defaults stay untouched")
}

func TestBatcher(t *testing.T) {
	X := [][]float64{{1}, {2}, {3}, {4}, {5}}
	y := []float64{1, 2, 3, 4, 5}

	stop := make(chan struct{})
	defer close(stop)
	in := StreamRows(X, y, []int{4, 3, 2, 1, 0}, stop)

	out := make(chan Batch)
	Batcher(in, 2, out)

	var sizes []int
	var order []float64
	for b := range out {
		sizes = append(sizes, len(b.Y))
		order = append(order, b.Y...)
	}
	assert.Equal(t, []int{2, 2, 1}, sizes)
	assert.Equal(t, []float64{5, 4, 3, 2, 1}, order)
}
