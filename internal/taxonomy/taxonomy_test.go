package taxonomy

import (
	"reflect"
	"testing"
)

func TestClassify(t *testing.T) {
	c := NewTableClassifier()

	got := c.Classify("Vas i glas, Orrefors, 1960-tal. Blå dekor, jugend.")
	if !reflect.DeepEqual(got.Materials, []string{"glass"}) {
		t.Errorf("materials = %v", got.Materials)
	}
	if !reflect.DeepEqual(got.Periods, []string{"1960s"}) {
		t.Errorf("periods = %v", got.Periods)
	}
	if !reflect.DeepEqual(got.Styles, []string{"art nouveau"}) {
		t.Errorf("styles = %v", got.Styles)
	}
	if !reflect.DeepEqual(got.Colors, []string{"blue"}) {
		t.Errorf("colors = %v", got.Colors)
	}
}

func TestClassifyTwoWordPhrase(t *testing.T) {
	c := NewTableClassifier()
	got := c.Classify("Byrå, karl johan, mahogny och gjutjärn")
	if !reflect.DeepEqual(got.Styles, []string{"empire"}) {
		t.Errorf("styles = %v", got.Styles)
	}
	if !reflect.DeepEqual(got.Materials, []string{"mahogany", "cast iron"}) {
		t.Errorf("materials = %v", got.Materials)
	}
}

func TestClassifyEmptyAndUnknown(t *testing.T) {
	c := NewTableClassifier()
	for _, text := range []string{"", "   ", "okänt föremål utan kategori"} {
		got := c.Classify(text)
		if len(got.Materials)+len(got.Periods)+len(got.Styles)+len(got.Colors) != 0 {
			t.Errorf("Classify(%q) = %+v, want empty", text, got)
		}
	}
}

func TestClassifyDeduplicates(t *testing.T) {
	c := NewTableClassifier()
	got := c.Classify("glas, glas, GLAS och kristall")
	if !reflect.DeepEqual(got.Materials, []string{"glass"}) {
		t.Errorf("materials = %v", got.Materials)
	}
}
