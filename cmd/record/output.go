package record

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/dzakmu/UNDIP-Sietem-Rumah-Sakit/lib/records"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

type outputFormat string

const (
	outputText outputFormat = "text"
	outputJSON outputFormat = "json"
	outputYAML outputFormat = "yaml"
)

func parseOutputFormat(s string) (outputFormat, error) {
	switch f := outputFormat(s); f {
	case outputText, outputJSON, outputYAML:
		return f, nil
	default:
		return "", fmt.Errorf("invalid output format %s (expected one of: text, json, yaml)", s)
	}
}

// printRecords writes recs in the format selected with --output
func printRecords(w io.Writer, recs ...records.Record) error {
	format, err := parseOutputFormat(viper.GetString("output"))
	if err != nil {
		return err
	}
	return writeRecords(w, format, recs)
}

func writeRecords(w io.Writer, format outputFormat, recs []records.Record) error {
	// a single record is printed as an object, everything else as a list
	var v any = recs
	if len(recs) == 1 {
		v = recs[0]
	}

	switch format {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case outputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		if len(recs) == 0 {
			_, err := fmt.Fprintln(w, "no records")
			return err
		}
		for _, rec := range recs {
			if _, err := fmt.Fprintf(w, "id=%d\tname=%q\tcomplaint=%q\n", rec.ID, rec.Name, rec.Complaint); err != nil {
				return err
			}
		}
		return nil
	}
}
