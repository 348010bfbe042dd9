package logsvc

import "github.com/trezcool/swimschool/core"

// NewReporters returns the error trackers enabled by conf.
func NewReporters(conf *core.Config) ([]Reporter, error) {
	var reporters []Reporter
	if rb := NewRollbarReporter(conf); rb != nil {
		reporters = append(reporters, rb)
	}
	st, err := NewSentryReporter(conf)
	if err != nil {
		return nil, err
	}
	if st != nil {
		reporters = append(reporters, st)
	}
	return reporters, nil
}
