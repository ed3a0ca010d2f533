package metadata

import (
	"testing"

	"github.com/tobias-gill/Figshare-desktop/internal/models"
)

func TestKindForFile(t *testing.T) {
	cases := []struct {
		path string
		want models.Kind
	}{
		{"scan_001.Z_flat", models.KindSTMTopo},
		{"data/scan_001.Z_flat", models.KindSTMTopo},
		{"iv_curve.I(V)_flat", models.KindSTMSpec},
		{"aux.Aux1(V)_flat", models.KindSTMSpec},
		{"aux.Aux2(V)_flat", models.KindSTMSpec},
		{"tip.zad", models.KindSTMTopo},
		{"notes.txt", models.KindArticle},
		{"archive.tar.gz", models.KindArticle},
	}
	for _, tc := range cases {
		if got := KindForFile(tc.path); got != tc.want {
			t.Errorf("KindForFile(%q) = %q, want %q", tc.path, got, tc.want)
		}
	}
}

func TestSchemaFieldNames(t *testing.T) {
	topo := CustomFieldNames(models.KindSTMTopo)
	for _, name := range []string{"vgap", "current", "xres", "direction", "sample"} {
		if _, ok := topo[name]; !ok {
			t.Errorf("stm_topo schema missing %q", name)
		}
	}
	if _, ok := topo["vres"]; ok {
		t.Error("vres belongs to stm_spec, not stm_topo")
	}

	if Schema(models.KindArticle) != nil {
		t.Error("plain articles have no custom-field schema")
	}
}

func TestMergeCustomRestrictedToSchema(t *testing.T) {
	base := models.Fields{"vgap": "-1.0"}
	MergeCustom(models.KindSTMTopo, base, models.Fields{
		"vgap":    "-2.0",
		"sample":  "Au(111)",
		"vres":    "512", // stm_spec field, not in the topo schema
		"current": "None",
	})
	if base["vgap"] != "-2.0" {
		t.Errorf("vgap = %v", base["vgap"])
	}
	if base["sample"] != "Au(111)" {
		t.Errorf("sample = %v", base["sample"])
	}
	if _, ok := base["vres"]; ok {
		t.Error("field outside the kind schema should be ignored")
	}
	if _, ok := base["current"]; ok {
		t.Error("literal \"None\" should be ignored")
	}
}
