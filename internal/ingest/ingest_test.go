package ingest

import (
	"bytes"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestReadCSV_PrefersAwbHeader(t *testing.T) {
	data := "Order,AWB,Weight\nX1,TH001,1.2\nX2, TH002 ,0.8\n"
	awbs, err := ReadCSV(strings.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"TH001", "TH002"}
	if !reflect.DeepEqual(awbs, want) {
		t.Fatalf("expected %v, got %v", want, awbs)
	}
}

func TestReadCSV_FallsBackToPatternHeader(t *testing.T) {
	data := "Name,Tracking No\nshirt,TRK-1\npants,TRK-2\n"
	awbs, err := ReadCSV(strings.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"TRK-1", "TRK-2"}
	if !reflect.DeepEqual(awbs, want) {
		t.Fatalf("expected %v, got %v", want, awbs)
	}
}

func TestReadCSV_FallsBackToFirstColumn(t *testing.T) {
	data := "Code,Weight\nC1,5\nC2,7\n"
	awbs, err := ReadCSV(strings.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"C1", "C2"}
	if !reflect.DeepEqual(awbs, want) {
		t.Fatalf("expected %v, got %v", want, awbs)
	}
}

func TestReadCSV_EmptyCellsKeptAsEmptyRows(t *testing.T) {
	// Whitespace-only values stay in the output so the caller can count
	// error rows. Fully blank lines are dropped by the csv reader itself.
	data := "awb,qty\nTH1,1\n   ,2\nTH2,3\n"
	awbs, err := ReadCSV(strings.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"TH1", "", "TH2"}
	if !reflect.DeepEqual(awbs, want) {
		t.Fatalf("expected %v, got %v", want, awbs)
	}
}

func TestReadCSV_HeaderOnly(t *testing.T) {
	awbs, err := ReadCSV(strings.NewReader("AWB\n"))
	if err != nil {
		t.Fatal(err)
	}
	if len(awbs) != 0 {
		t.Fatalf("expected no rows, got %v", awbs)
	}
}

func TestReadWorkbook(t *testing.T) {
	f := excelize.NewFile()
	f.SetSheetRow("Sheet1", "A1", &[]interface{}{"Serial Number", "Qty"})
	f.SetSheetRow("Sheet1", "A2", &[]interface{}{"SN-100", 1})
	f.SetSheetRow("Sheet1", "A3", &[]interface{}{" SN-200 ", 2})
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatal(err)
	}

	awbs, err := ReadWorkbook(&buf)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"SN-100", "SN-200"}
	if !reflect.DeepEqual(awbs, want) {
		t.Fatalf("expected %v, got %v", want, awbs)
	}
}

func TestReadFile_ByExtension(t *testing.T) {
	awbs, err := ReadFile(strings.NewReader("AWB\nTH1\n"), "manifest.CSV")
	if err != nil {
		t.Fatal(err)
	}
	if len(awbs) != 1 || awbs[0] != "TH1" {
		t.Fatalf("expected [TH1], got %v", awbs)
	}

	if _, err := ReadFile(strings.NewReader(""), "manifest.txt"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}
