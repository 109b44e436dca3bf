package scoring

import (
	"fmt"
	"strings"
)

// fixturePMML is a two-tree forest: the first splits on fertilizer at 80,
// the second is a constant leaf of 70.
func fixturePMML(dataFields []string) []byte {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	b.WriteString(`<PMML xmlns="http://www.dmg.org/PMML-4_3" version="4.3"><DataDictionary>`)
	for _, f := range dataFields {
		fmt.Fprintf(&b, `<DataField name="%s" optype="continuous" dataType="double"/>`, f)
	}
	b.WriteString(`</DataDictionary><MiningModel functionName="regression"><Segmentation multipleModelMethod="average">`)
	b.WriteString(`<Segment id="1"><True/><TreeModel functionName="regression"><MiningSchema/>`)
	b.WriteString(`<Node id="0"><True/>`)
	b.WriteString(`<Node id="1" score="80"><SimplePredicate field="Fertilizer_Usage_kg" operator="lessOrEqual" value="80"/></Node>`)
	b.WriteString(`<Node id="2" score="40"><SimplePredicate field="Fertilizer_Usage_kg" operator="greaterThan" value="80"/></Node>`)
	b.WriteString(`</Node></TreeModel></Segment>`)
	b.WriteString(`<Segment id="2"><True/><TreeModel functionName="regression"><MiningSchema/>`)
	b.WriteString(`<Node id="0" score="70"><True/></Node>`)
	b.WriteString(`</TreeModel></Segment>`)
	b.WriteString(`</Segmentation></MiningModel></PMML>`)
	return []byte(b.String())
}

func fullFields() []string {
	return append(append([]string(nil), FeatureNames...), TargetName)
}
