package tsdemux

// Descriptor tags this package decodes beyond the generic tag/length/value
// shape. Unrecognized tags are kept as a Descriptor with only Tag, Length
// and Raw set, so callers can still see them.
const (
	DescriptorTagService       uint8 = 0x48
	DescriptorTagShortEvent    uint8 = 0x4d
	DescriptorTagExtendedEvent uint8 = 0x4e
	DescriptorTagComponent     uint8 = 0x50
	DescriptorTagStreamID      uint8 = 0x52
	DescriptorTagNetworkName   uint8 = 0x40
	DescriptorTagParentalRate  uint8 = 0x55
)

// Descriptor is one tag/length/value entry from a descriptor loop, with a
// decoded payload attached when the tag is recognized.
type Descriptor struct {
	Tag    uint8
	Length uint8
	Raw    []byte

	Service       *DescriptorService
	ShortEvent    *DescriptorShortEvent
	ExtendedEvent *DescriptorExtendedEvent
	Component     *DescriptorComponent
	StreamID      *DescriptorStreamIdentifier
	NetworkName   *DescriptorNetworkName
	ParentalRate  *DescriptorParentalRating
}

type DescriptorService struct {
	Type                 uint8
	ProviderName         string
	Name                 string
}

type DescriptorShortEvent struct {
	Language string
	Name     string
	Text     string
}

type DescriptorExtendedEventItem struct {
	Description string
	Text        string
}

type DescriptorExtendedEvent struct {
	Number       uint8
	LastNumber   uint8
	Language     string
	Items        []DescriptorExtendedEventItem
	Text         string
}

type DescriptorComponent struct {
	StreamContentExt uint8
	StreamContent    uint8
	ComponentType    uint8
	ComponentTag     uint8
	Language         string
	Text             string
}

type DescriptorStreamIdentifier struct {
	ComponentTag uint8
}

type DescriptorNetworkName struct {
	Name string
}

type DescriptorParentalRating struct {
	CountryCode string
	Rating      uint8
}

// parseDescriptors walks a descriptor loop of the given byte length starting
// at b[0], stopping early (and reporting DescriptorOverflow via the bool
// return) if a descriptor's declared length would run past the loop's own
// bound.
func parseDescriptors(b []byte, loopLength int) ([]Descriptor, bool) {
	if loopLength > len(b) {
		loopLength = len(b)
	}
	var out []Descriptor
	offset := 0
	for offset < loopLength {
		if offset+2 > loopLength {
			return out, true
		}
		tag := b[offset]
		length := b[offset+1]
		start := offset + 2
		end := start + int(length)
		if end > loopLength {
			return out, true
		}
		d := Descriptor{Tag: tag, Length: length, Raw: b[start:end]}
		switch tag {
		case DescriptorTagService:
			d.Service = parseDescriptorService(d.Raw)
		case DescriptorTagShortEvent:
			d.ShortEvent = parseDescriptorShortEvent(d.Raw)
		case DescriptorTagExtendedEvent:
			d.ExtendedEvent = parseDescriptorExtendedEvent(d.Raw)
		case DescriptorTagComponent:
			d.Component = parseDescriptorComponent(d.Raw)
		case DescriptorTagStreamID:
			if len(d.Raw) >= 1 {
				d.StreamID = &DescriptorStreamIdentifier{ComponentTag: d.Raw[0]}
			}
		case DescriptorTagNetworkName:
			d.NetworkName = &DescriptorNetworkName{Name: string(d.Raw)}
		case DescriptorTagParentalRate:
			d.ParentalRate = parseDescriptorParentalRating(d.Raw)
		}
		out = append(out, d)
		offset = end
	}
	return out, false
}

func parseDescriptorService(b []byte) *DescriptorService {
	if len(b) < 3 {
		return nil
	}
	d := &DescriptorService{Type: b[0]}
	offset := 1
	providerLen := int(b[offset])
	offset++
	if offset+providerLen > len(b) {
		return d
	}
	d.ProviderName = string(b[offset : offset+providerLen])
	offset += providerLen
	if offset >= len(b) {
		return d
	}
	nameLen := int(b[offset])
	offset++
	if offset+nameLen > len(b) {
		return d
	}
	d.Name = string(b[offset : offset+nameLen])
	return d
}

func parseDescriptorShortEvent(b []byte) *DescriptorShortEvent {
	if len(b) < 4 {
		return nil
	}
	d := &DescriptorShortEvent{Language: string(b[0:3])}
	offset := 3
	nameLen := int(b[offset])
	offset++
	if offset+nameLen > len(b) {
		return d
	}
	d.Name = string(b[offset : offset+nameLen])
	offset += nameLen
	if offset >= len(b) {
		return d
	}
	textLen := int(b[offset])
	offset++
	if offset+textLen > len(b) {
		return d
	}
	d.Text = string(b[offset : offset+textLen])
	return d
}

func parseDescriptorExtendedEvent(b []byte) *DescriptorExtendedEvent {
	if len(b) < 5 {
		return nil
	}
	d := &DescriptorExtendedEvent{
		Number:     b[0] >> 4,
		LastNumber: b[0] & 0x0f,
		Language:   string(b[1:4]),
	}
	offset := 4
	itemsLen := int(b[offset])
	offset++
	itemsEnd := offset + itemsLen
	if itemsEnd > len(b) {
		itemsEnd = len(b)
	}
	for offset < itemsEnd {
		if offset+1 > itemsEnd {
			break
		}
		descLen := int(b[offset])
		offset++
		if offset+descLen > itemsEnd {
			break
		}
		description := string(b[offset : offset+descLen])
		offset += descLen
		if offset >= itemsEnd {
			break
		}
		textLen := int(b[offset])
		offset++
		if offset+textLen > itemsEnd {
			break
		}
		text := string(b[offset : offset+textLen])
		offset += textLen
		d.Items = append(d.Items, DescriptorExtendedEventItem{Description: description, Text: text})
	}
	offset = itemsEnd
	if offset >= len(b) {
		return d
	}
	textLen := int(b[offset])
	offset++
	if offset+textLen > len(b) {
		return d
	}
	d.Text = string(b[offset : offset+textLen])
	return d
}

func parseDescriptorComponent(b []byte) *DescriptorComponent {
	if len(b) < 6 {
		return nil
	}
	d := &DescriptorComponent{
		StreamContentExt: b[0] >> 4,
		StreamContent:    b[0] & 0x0f,
		ComponentType:    b[1],
		ComponentTag:     b[2],
		Language:         string(b[3:6]),
	}
	if len(b) > 6 {
		d.Text = string(b[6:])
	}
	return d
}

func parseDescriptorParentalRating(b []byte) *DescriptorParentalRating {
	if len(b) < 4 {
		return nil
	}
	return &DescriptorParentalRating{CountryCode: string(b[0:3]), Rating: b[3]}
}
