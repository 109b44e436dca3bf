package forest

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"time"
)

const pmmlNamespace = "http://www.dmg.org/PMML-4_3"

type pmmlDoc struct {
	XMLName        xml.Name       `xml:"PMML"`
	Xmlns          string         `xml:"xmlns,attr"`
	Version        string         `xml:"version,attr"`
	Header         pmmlHeader     `xml:"Header"`
	DataDictionary dataDictionary `xml:"DataDictionary"`
	MiningModel    miningModel    `xml:"MiningModel"`
}

type pmmlHeader struct {
	Application struct {
		Name    string `xml:"name,attr"`
		Version string `xml:"version,attr,omitempty"`
	} `xml:"Application"`
	Timestamp string `xml:"Timestamp"`
}

type dataDictionary struct {
	NumberOfFields int         `xml:"numberOfFields,attr"`
	Fields         []dataField `xml:"DataField"`
}

type dataField struct {
	Name     string `xml:"name,attr"`
	Optype   string `xml:"optype,attr"`
	DataType string `xml:"dataType,attr"`
}

type miningSchema struct {
	Fields []miningField `xml:"MiningField"`
}

type miningField struct {
	Name      string `xml:"name,attr"`
	UsageType string `xml:"usageType,attr,omitempty"`
}

type miningModel struct {
	FunctionName string       `xml:"functionName,attr"`
	MiningSchema miningSchema `xml:"MiningSchema"`
	Segmentation segmentation `xml:"Segmentation"`
}

type segmentation struct {
	Method   string    `xml:"multipleModelMethod,attr"`
	Segments []segment `xml:"Segment"`
}

type segment struct {
	ID        int       `xml:"id,attr"`
	True      *struct{} `xml:"True"`
	TreeModel treeModel `xml:"TreeModel"`
}

type treeModel struct {
	FunctionName        string       `xml:"functionName,attr"`
	SplitCharacteristic string       `xml:"splitCharacteristic,attr"`
	MiningSchema        miningSchema `xml:"MiningSchema"`
	Node                pmmlNode     `xml:"Node"`
}

// id must precede score: evaluators read them positionally.
type pmmlNode struct {
	ID        int              `xml:"id,attr"`
	Score     string           `xml:"score,attr"`
	True      *struct{}        `xml:"True"`
	Predicate *simplePredicate `xml:"SimplePredicate"`
	Children  []pmmlNode       `xml:"Node"`
}

type simplePredicate struct {
	Field    string `xml:"field,attr"`
	Operator string `xml:"operator,attr"`
	Value    string `xml:"value,attr"`
}

// Exporter carries the metadata written alongside the trees.
type Exporter struct {
	Features    []string
	Target      string
	Application string
	Now         func() time.Time
}

// WritePMML encodes f as a PMML 4.3 MiningModel averaging TreeModel segments.
func (e Exporter) WritePMML(w io.Writer, f *Forest) error {
	if len(e.Features) != f.nFeatures {
		return fmt.Errorf("pmml: %d feature names for %d features", len(e.Features), f.nFeatures)
	}
	now := time.Now
	if e.Now != nil {
		now = e.Now
	}

	doc := pmmlDoc{Xmlns: pmmlNamespace, Version: "4.3"}
	doc.Header.Application.Name = e.Application
	doc.Header.Timestamp = now().UTC().Format(time.RFC3339)

	schema := miningSchema{}
	for _, name := range e.Features {
		doc.DataDictionary.Fields = append(doc.DataDictionary.Fields, dataField{Name: name, Optype: "continuous", DataType: "double"})
		schema.Fields = append(schema.Fields, miningField{Name: name})
	}
	doc.DataDictionary.Fields = append(doc.DataDictionary.Fields, dataField{Name: e.Target, Optype: "continuous", DataType: "double"})
	doc.DataDictionary.NumberOfFields = len(doc.DataDictionary.Fields)
	schema.Fields = append(schema.Fields, miningField{Name: e.Target, UsageType: "target"})

	doc.MiningModel = miningModel{
		FunctionName: "regression",
		MiningSchema: schema,
		Segmentation: segmentation{Method: "average"},
	}
	for i, t := range f.trees {
		root := e.node(t.root, nil)
		doc.MiningModel.Segmentation.Segments = append(doc.MiningModel.Segmentation.Segments, segment{
			ID:   i + 1,
			True: &struct{}{},
			TreeModel: treeModel{
				FunctionName:        "regression",
				SplitCharacteristic: "binarySplit",
				MiningSchema:        schema,
				Node:                root,
			},
		})
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", " ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("pmml: %w", err)
	}
	return enc.Flush()
}

func (e Exporter) node(n *node, pred *simplePredicate) pmmlNode {
	out := pmmlNode{ID: n.id, Score: formatFloat(n.value), Predicate: pred}
	if pred == nil {
		out.True = &struct{}{}
	}
	if n.leaf {
		return out
	}
	field := e.Features[n.feature]
	thr := formatFloat(n.threshold)
	out.Children = []pmmlNode{
		e.node(n.left, &simplePredicate{Field: field, Operator: "lessOrEqual", Value: thr}),
		e.node(n.right, &simplePredicate{Field: field, Operator: "greaterThan", Value: thr}),
	}
	return out
}

func formatFloat(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
