package evt

// LEAdvertisingReport implements LE Advertising Report (0x3E:0x02)
// [Vol 4, Part E, 7.7.65.2]. One packet batches NumReports sub-reports
// laid out sequentially, each
//
//	event_type(1) addr_type(1) addr(6) data_len(1) data rssi(1)
//
// for 10+data_len bytes. The buffer includes the subevent byte.
type LEAdvertisingReport []byte

func (e LEAdvertisingReport) Valid() bool         { return len(e) >= 2 }
func (e LEAdvertisingReport) SubeventCode() uint8 { return getByte(e, 0, 0) }
func (e LEAdvertisingReport) NumReports() uint8   { return getByte(e, 1, 0) }

// AdvReport is one decoded sub-report. Data aliases the event buffer.
type AdvReport struct {
	EventType   uint8
	AddressType uint8
	Address     [6]byte
	Data        []byte
	RSSI        int8
}

// Reports returns an iterator over the batched sub-reports.
func (e LEAdvertisingReport) Reports() AdvReportIterator {
	if len(e) < 2 {
		return AdvReportIterator{}
	}
	return AdvReportIterator{b: e[2:], left: int(e[1])}
}

// AdvReportIterator walks sub-reports front to back, stopping cleanly
// the moment the remaining bytes cannot satisfy a full sub-report.
type AdvReportIterator struct {
	b    []byte
	left int
}

// Next returns the next sub-report, or false when the batch is
// exhausted or the remainder is truncated.
func (it *AdvReportIterator) Next() (AdvReport, bool) {
	if it.left <= 0 || len(it.b) < 10 {
		return AdvReport{}, false
	}
	dl := int(it.b[8])
	n := 10 + dl
	if len(it.b) < n {
		return AdvReport{}, false
	}

	r := AdvReport{
		EventType:   it.b[0],
		AddressType: it.b[1],
		Data:        it.b[9 : 9+dl],
		RSSI:        int8(it.b[9+dl]),
	}
	copy(r.Address[:], it.b[2:8])

	it.b = it.b[n:]
	it.left--
	return r, true
}
