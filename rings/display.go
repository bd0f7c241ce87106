package rings

// Indicator is the short label shown next to a carrier-day in reports.
type Indicator string

const (
	IndicatorNone       Indicator = ""
	IndicatorNSProtect  Indicator = "(NS protect)"
	IndicatorAnnual     Indicator = "(annual)"
	IndicatorGuaranteed Indicator = "(guaranteed)"
	IndicatorHoliday    Indicator = "(holiday)"
	IndicatorNSDay      Indicator = "(NS day)"
	IndicatorSick       Indicator = "(sick)"
	IndicatorNoCall     Indicator = "(no call)"
)

// indicatorFor maps (code, leave type) to a display indicator. Both inputs
// are normalized labels ("none" when blank).
func indicatorFor(code, leaveType string) Indicator {
	switch {
	case code == "annual" && leaveType == "none":
		return IndicatorNSProtect
	case code == "annual" && leaveType == "annual":
		return IndicatorAnnual
	case code == "none" && leaveType == "annual":
		return IndicatorAnnual
	case code == "none" && leaveType == "guaranteed":
		return IndicatorGuaranteed
	case code == "none" && leaveType == "holiday":
		return IndicatorHoliday
	case code == "ns day" && leaveType == "none":
		return IndicatorNSDay
	case code == "sick" && leaveType == "sick":
		return IndicatorSick
	case code == "none" && leaveType == "sick":
		return IndicatorSick
	case code == "no call" && leaveType == "none":
		return IndicatorNoCall
	}
	return IndicatorNone
}

// ExcusesOTDL reports indicators that release an OTDL carrier from
// maximization for the day.
func (i Indicator) ExcusesOTDL() bool {
	switch i {
	case IndicatorSick, IndicatorNSProtect, IndicatorHoliday, IndicatorGuaranteed, IndicatorAnnual:
		return true
	}
	return false
}
