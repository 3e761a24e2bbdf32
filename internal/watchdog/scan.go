package watchdog

import (
	"os"

	"screenwatch/internal/slots"
)

// Scan counts the tracked files in dir without watching it.
func Scan(dir string, classifier *slots.Classifier) (slots.Snapshot, error) {
	if classifier == nil {
		classifier = slots.DefaultClassifier()
	}
	tracker := slots.NewTracker(classifier.Capacity())
	err := scanInto(dir, classifier, tracker)
	return tracker.Snapshot(), err
}

// scanInto marks every tracked regular entry of dir present. Entries read
// before a listing error are still marked.
func scanInto(dir string, classifier *slots.Classifier, tracker *slots.Tracker) error {
	entries, err := os.ReadDir(dir)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if idx, ok := classifier.Classify(entry.Name()); ok {
			tracker.Mark(idx, true)
		}
	}
	return err
}
