package document

import (
	"bytes"
	"encoding/xml"
	"text/template"
)

const (
	nsA = `xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main"`
	nsR = `xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"`
	nsP = `xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"`

	xmlHeader = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n"
)

var partFuncs = template.FuncMap{
	"esc": func(s string) (string, error) {
		var buf bytes.Buffer
		if err := xml.EscapeText(&buf, []byte(s)); err != nil {
			return "", err
		}
		return buf.String(), nil
	},
	"add": func(a, b int) int { return a + b },
}

var parts = template.Must(template.New("parts").Funcs(partFuncs).Parse(`
{{define "content_types"}}<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
<Default Extension="xml" ContentType="application/xml"/>
<Override PartName="/ppt/presentation.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.presentation.main+xml"/>
<Override PartName="/ppt/slideMasters/slideMaster1.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slideMaster+xml"/>
<Override PartName="/ppt/slideLayouts/slideLayout1.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slideLayout+xml"/>
<Override PartName="/ppt/theme/theme1.xml" ContentType="application/vnd.openxmlformats-officedocument.theme+xml"/>
{{range .Slides}}<Override PartName="/ppt/slides/slide{{.Number}}.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slide+xml"/>
{{end}}<Override PartName="/docProps/core.xml" ContentType="application/vnd.openxmlformats-package.core-properties+xml"/>
<Override PartName="/docProps/app.xml" ContentType="application/vnd.openxmlformats-officedocument.extended-properties+xml"/>
</Types>{{end}}

{{define "root_rels"}}<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="ppt/presentation.xml"/>
<Relationship Id="rId2" Type="http://schemas.openxmlformats.org/package/2006/relationships/metadata/core-properties" Target="docProps/core.xml"/>
<Relationship Id="rId3" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/extended-properties" Target="docProps/app.xml"/>
</Relationships>{{end}}

{{define "presentation"}}<p:presentation ` + nsA + ` ` + nsR + ` ` + nsP + ` saveSubsetFonts="1">
<p:sldMasterIdLst><p:sldMasterId id="2147483648" r:id="rId1"/></p:sldMasterIdLst>
<p:sldIdLst>{{range .Slides}}<p:sldId id="{{add .Number 255}}" r:id="rId{{add .Number 2}}"/>{{end}}</p:sldIdLst>
<p:sldSz cx="{{.Width}}" cy="{{.Height}}"/>
<p:notesSz cx="6858000" cy="9144000"/>
</p:presentation>{{end}}

{{define "presentation_rels"}}<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideMaster" Target="slideMasters/slideMaster1.xml"/>
<Relationship Id="rId2" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/theme" Target="theme/theme1.xml"/>
{{range .Slides}}<Relationship Id="rId{{add .Number 2}}" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slide" Target="slides/slide{{.Number}}.xml"/>
{{end}}</Relationships>{{end}}

{{define "empty_tree"}}<p:spTree><p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr><p:grpSpPr><a:xfrm><a:off x="0" y="0"/><a:ext cx="0" cy="0"/><a:chOff x="0" y="0"/><a:chExt cx="0" cy="0"/></a:xfrm></p:grpSpPr>{{end}}

{{define "slide_master"}}<p:sldMaster ` + nsA + ` ` + nsR + ` ` + nsP + `>
<p:cSld>{{template "empty_tree"}}</p:spTree></p:cSld>
<p:clrMap bg1="lt1" tx1="dk1" bg2="lt2" tx2="dk2" accent1="accent1" accent2="accent2" accent3="accent3" accent4="accent4" accent5="accent5" accent6="accent6" hlink="hlink" folHlink="folHlink"/>
<p:sldLayoutIdLst><p:sldLayoutId id="2147483649" r:id="rId1"/></p:sldLayoutIdLst>
</p:sldMaster>{{end}}

{{define "slide_master_rels"}}<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideLayout" Target="../slideLayouts/slideLayout1.xml"/>
<Relationship Id="rId2" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/theme" Target="../theme/theme1.xml"/>
</Relationships>{{end}}

{{define "slide_layout"}}<p:sldLayout ` + nsA + ` ` + nsR + ` ` + nsP + ` type="blank" preserve="1">
<p:cSld name="Blank">{{template "empty_tree"}}</p:spTree></p:cSld>
<p:clrMapOvr><a:masterClrMapping/></p:clrMapOvr>
</p:sldLayout>{{end}}

{{define "slide_layout_rels"}}<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideMaster" Target="../slideMasters/slideMaster1.xml"/>
</Relationships>{{end}}

{{define "theme"}}<a:theme ` + nsA + ` name="{{esc .Name}}">
<a:themeElements>
<a:clrScheme name="{{esc .Name}}">
<a:dk1><a:srgbClr val="{{.Colors.Text}}"/></a:dk1><a:lt1><a:srgbClr val="{{.Colors.Background}}"/></a:lt1>
<a:dk2><a:srgbClr val="{{.Colors.Title}}"/></a:dk2><a:lt2><a:srgbClr val="{{.Colors.Background}}"/></a:lt2>
<a:accent1><a:srgbClr val="{{.Colors.Accent}}"/></a:accent1><a:accent2><a:srgbClr val="{{.Colors.Accent}}"/></a:accent2>
<a:accent3><a:srgbClr val="{{.Colors.Title}}"/></a:accent3><a:accent4><a:srgbClr val="{{.Colors.Text}}"/></a:accent4>
<a:accent5><a:srgbClr val="{{.Colors.Accent}}"/></a:accent5><a:accent6><a:srgbClr val="{{.Colors.Title}}"/></a:accent6>
<a:hlink><a:srgbClr val="{{.Colors.Accent}}"/></a:hlink><a:folHlink><a:srgbClr val="{{.Colors.Title}}"/></a:folHlink>
</a:clrScheme>
<a:fontScheme name="{{esc .Name}}">
<a:majorFont><a:latin typeface="{{esc .Font}}"/><a:ea typeface=""/><a:cs typeface=""/></a:majorFont>
<a:minorFont><a:latin typeface="{{esc .Font}}"/><a:ea typeface=""/><a:cs typeface=""/></a:minorFont>
</a:fontScheme>
<a:fmtScheme name="{{esc .Name}}">
<a:fillStyleLst><a:solidFill><a:schemeClr val="phClr"/></a:solidFill><a:solidFill><a:schemeClr val="phClr"/></a:solidFill><a:solidFill><a:schemeClr val="phClr"/></a:solidFill></a:fillStyleLst>
<a:lnStyleLst><a:ln w="6350"><a:solidFill><a:schemeClr val="phClr"/></a:solidFill></a:ln><a:ln w="12700"><a:solidFill><a:schemeClr val="phClr"/></a:solidFill></a:ln><a:ln w="19050"><a:solidFill><a:schemeClr val="phClr"/></a:solidFill></a:ln></a:lnStyleLst>
<a:effectStyleLst><a:effectStyle><a:effectLst/></a:effectStyle><a:effectStyle><a:effectLst/></a:effectStyle><a:effectStyle><a:effectLst/></a:effectStyle></a:effectStyleLst>
<a:bgFillStyleLst><a:solidFill><a:schemeClr val="phClr"/></a:solidFill><a:solidFill><a:schemeClr val="phClr"/></a:solidFill><a:solidFill><a:schemeClr val="phClr"/></a:solidFill></a:bgFillStyleLst>
</a:fmtScheme>
</a:themeElements>
</a:theme>{{end}}

{{define "slide"}}<p:sld ` + nsA + ` ` + nsR + ` ` + nsP + `>
<p:cSld><p:bg><p:bgPr><a:solidFill><a:srgbClr val="{{.Background}}"/></a:solidFill><a:effectLst/></p:bgPr></p:bg>
{{template "empty_tree"}}
{{$font := .Font}}{{range .Shapes}}<p:sp><p:nvSpPr><p:cNvPr id="{{.ID}}" name="{{esc .Name}}"/><p:cNvSpPr{{if .TextBox}} txBox="1"{{end}}/><p:nvPr/></p:nvSpPr>
<p:spPr><a:xfrm><a:off x="{{.X}}" y="{{.Y}}"/><a:ext cx="{{.CX}}" cy="{{.CY}}"/></a:xfrm><a:prstGeom prst="rect"><a:avLst/></a:prstGeom>{{if .Fill}}<a:solidFill><a:srgbClr val="{{.Fill}}"/></a:solidFill><a:ln><a:noFill/></a:ln>{{else}}<a:noFill/>{{end}}</p:spPr>
<p:txBody><a:bodyPr wrap="square" lIns="91440" tIns="45720" rIns="91440" bIns="45720" anchor="{{if .Anchor}}{{.Anchor}}{{else}}t{{end}}"><a:normAutofit/></a:bodyPr><a:lstStyle/>{{if .Paragraphs}}{{range .Paragraphs}}<a:p>{{if .Bullet}}<a:pPr marL="342900" indent="-342900"><a:spcBef><a:spcPts val="600"/></a:spcBef><a:buClr><a:srgbClr val="{{.Color}}"/></a:buClr><a:buFont typeface="Arial"/><a:buChar char="&#8226;"/></a:pPr>{{else}}<a:pPr{{if .Center}} algn="ctr"{{end}}><a:buNone/></a:pPr>{{end}}<a:r><a:rPr lang="en-US" sz="{{.Size}}"{{if .Bold}} b="1"{{end}} dirty="0"><a:solidFill><a:srgbClr val="{{.Color}}"/></a:solidFill><a:latin typeface="{{esc $font}}"/><a:cs typeface="{{esc $font}}"/></a:rPr><a:t>{{esc .Text}}</a:t></a:r></a:p>{{end}}{{else}}<a:p><a:endParaRPr lang="en-US" dirty="0"/></a:p>{{end}}</p:txBody></p:sp>
{{end}}</p:spTree></p:cSld>
<p:clrMapOvr><a:masterClrMapping/></p:clrMapOvr>
</p:sld>{{end}}

{{define "slide_rels"}}<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideLayout" Target="../slideLayouts/slideLayout1.xml"/>
</Relationships>{{end}}

{{define "core"}}<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties" xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:dcterms="http://purl.org/dc/terms/" xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance">
<dc:title>{{esc .Title}}</dc:title>
<dc:creator>deckforge</dc:creator>
<dcterms:created xsi:type="dcterms:W3CDTF">{{.Created}}</dcterms:created>
<dcterms:modified xsi:type="dcterms:W3CDTF">{{.Created}}</dcterms:modified>
</cp:coreProperties>{{end}}

{{define "app"}}<Properties xmlns="http://schemas.openxmlformats.org/officeDocument/2006/extended-properties">
<Application>deckforge</Application>
<Slides>{{len .Slides}}</Slides>
<PresentationFormat>{{.Format}}</PresentationFormat>
</Properties>{{end}}
`))

// renderPart executes a named part template and prefixes the XML header.
func renderPart(name string, data any) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(xmlHeader)
	if err := parts.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
