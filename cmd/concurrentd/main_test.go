package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/maxatome/go-testdeep/td"

	"github.com/fogfactory/concurrent/service"
)

func responses(t testing.TB, out string) []service.Response {
	var res []service.Response
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		var resp service.Response
		td.Require(t).CmpNoError(json.Unmarshal([]byte(line), &resp), line)
		res = append(res, resp)
	}
	return res
}

func TestRun(t *testing.T) {
	ctx := context.Background()

	t.Run("success_lines_keep_input_order", func(t *testing.T) {
		// Arrange
		var in strings.Builder
		for i := range 20 {
			method := "concurrent_parallel_process"
			if i%2 == 1 {
				method = "concurrent_pipeline"
			}
			in.WriteString(`{"method":"` + method + `","data":[1,"a"],"request_id":"r` + string(rune('a'+i)) + `"}` + "\n")
			if i == 5 {
				in.WriteString("\n")
			}
		}
		var out bytes.Buffer

		// Act
		err := run(ctx, []string{"--max-tasks", "3", "--log-level", "error"}, strings.NewReader(in.String()), &out)

		// Assert
		td.Require(t).CmpNoError(err)
		got := responses(t, out.String())
		td.Require(t).Len(got, 20)
		for i, resp := range got {
			td.Cmp(t, resp.RequestID, "r"+string(rune('a'+i)))
			td.CmpTrue(t, resp.Success, resp.Error)
		}
	})

	t.Run("success_input_file", func(t *testing.T) {
		// Arrange
		path := filepath.Join(t.TempDir(), "requests.jsonl")
		td.Require(t).CmpNoError(os.WriteFile(path, []byte(`{"method":"health_check","request_id":"h"}`+"\n"+`not json`+"\n"), 0o600))
		var out bytes.Buffer

		// Act
		err := run(ctx, []string{"-i", path, "--log-level", "error"}, strings.NewReader(""), &out)

		// Assert
		td.Require(t).CmpNoError(err)
		got := responses(t, out.String())
		td.Require(t).Len(got, 2)
		td.CmpTrue(t, got[0].Success)
		td.Cmp(t, got[0].RequestID, "h")
		td.CmpFalse(t, got[1].Success)
		td.Cmp(t, got[1].Metadata["error_code"], "INVALID_REQUEST")
	})

	t.Run("error_bad_flags", func(t *testing.T) {
		err := run(ctx, []string{"--max-tasks", "zero"}, strings.NewReader(""), &bytes.Buffer{})
		td.CmpError(t, err)
	})

	t.Run("error_missing_input_file", func(t *testing.T) {
		err := run(ctx, []string{"-i", filepath.Join(t.TempDir(), "missing"), "--log-level", "error"}, strings.NewReader(""), &bytes.Buffer{})
		td.CmpError(t, err)
	})

	t.Run("error_cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(ctx)
		cancel()

		err := run(ctx, []string{"--log-level", "error"}, strings.NewReader(`{"method":"health_check"}`), &bytes.Buffer{})

		td.CmpErrorIs(t, err, context.Canceled)
	})
}
