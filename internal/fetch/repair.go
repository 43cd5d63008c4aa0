package fetch

import (
	"bytes"
	"encoding/xml"
	"io"
)

// closeTruncated cuts body after its last complete token and closes the
// elements still open at that point. It reports false when nothing was left
// open, which means body wasn't cut off.
func closeTruncated(body []byte) ([]byte, bool) {
	d := xml.NewDecoder(bytes.NewReader(body))
	d.Strict = false
	d.Entity = xml.HTMLEntity
	d.CharsetReader = func(_ string, r io.Reader) (io.Reader, error) {
		return r, nil
	}

	var (
		open []xml.Name
		end  int64
	)
	for {
		tok, err := d.RawToken()
		if err != nil {
			break
		}

		switch t := tok.(type) {
		case xml.StartElement:
			open = append(open, t.Name)
		case xml.EndElement:
			// Closing an element also closes anything left open inside it, like a bare <br>.
			for i := len(open) - 1; i >= 0; i-- {
				if open[i] == t.Name {
					open = open[:i]
					break
				}
			}
		}
		end = d.InputOffset()
	}
	if len(open) == 0 {
		return nil, false
	}

	var buf bytes.Buffer
	buf.Write(body[:end])
	for i := len(open) - 1; i >= 0; i-- {
		buf.WriteString("</")
		if open[i].Space != "" {
			buf.WriteString(open[i].Space + ":")
		}
		buf.WriteString(open[i].Local + ">")
	}

	return buf.Bytes(), true
}
