package record

import (
	"bytes"
	"errors"
	"testing"

	"github.com/dzakmu/UNDIP-Sietem-Rumah-Sakit/lib/records"
	gometrics "github.com/rcrowley/go-metrics"
	"github.com/stretchr/testify/require"
)

func TestWriteRecords(t *testing.T) {
	rec := records.Record{ID: 1, Name: "A", Complaint: "cough"}

	var buf bytes.Buffer
	require.NoError(t, writeRecords(&buf, outputText, []records.Record{rec}))
	require.Equal(t, "id=1\tname=\"A\"\tcomplaint=\"cough\"\n", buf.String())

	buf.Reset()
	require.NoError(t, writeRecords(&buf, outputText, nil))
	require.Equal(t, "no records\n", buf.String())

	buf.Reset()
	require.NoError(t, writeRecords(&buf, outputJSON, []records.Record{rec}))
	require.JSONEq(t, `{"id":1,"name":"A","complaint":"cough"}`, buf.String())

	buf.Reset()
	require.NoError(t, writeRecords(&buf, outputJSON, []records.Record{rec, rec}))
	require.JSONEq(t, `[{"id":1,"name":"A","complaint":"cough"},{"id":1,"name":"A","complaint":"cough"}]`, buf.String())

	buf.Reset()
	require.NoError(t, writeRecords(&buf, outputYAML, []records.Record{rec}))
	require.YAMLEq(t, "id: 1\nname: A\ncomplaint: cough\n", buf.String())
}

func TestParseOutputFormat(t *testing.T) {
	for _, f := range []string{"text", "json", "yaml"} {
		_, err := parseOutputFormat(f)
		require.NoError(t, err)
	}
	_, err := parseOutputFormat("xml")
	require.Error(t, err)
}

func TestParseID(t *testing.T) {
	id, err := parseID("42")
	require.NoError(t, err)
	require.Equal(t, uint64(42), id)

	_, err = parseID("-1")
	require.Error(t, err)
	_, err = parseID("abc")
	require.Error(t, err)
}

func TestRunPhase(t *testing.T) {
	perfNumThreads = 4
	perfSkip = []string{"skipped"}

	registry := gometrics.NewRegistry()
	seen := make([]bool, 100)
	res := runPhase(registry, "ok", len(seen), func(i int) error {
		seen[i] = true
		if i%10 == 0 {
			return errors.New("boom")
		}
		return nil
	})
	require.False(t, res.Skipped)
	require.Equal(t, int64(90), res.Count)
	require.Equal(t, int64(10), res.Errors)
	for i, ok := range seen {
		require.True(t, ok, "index %d not visited", i)
	}

	res = runPhase(registry, "skipped", 10, func(int) error {
		t.Fatal("skipped phase must not run")
		return nil
	})
	require.True(t, res.Skipped)
}
