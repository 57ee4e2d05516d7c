package storage

import (
	"errors"

	"exchangeLedger/internal/model"
)

// Storage defines a sink for committed events and call receipts.
type Storage interface {
	PutEvents(events []model.Event) error
	PutReceipts(receipts []model.Receipt) error
}

// Fanout writes to every sink in order and joins their errors.
type Fanout []Storage

func (f Fanout) PutEvents(events []model.Event) error {
	var errs []error
	for _, s := range f {
		if err := s.PutEvents(events); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f Fanout) PutReceipts(receipts []model.Receipt) error {
	var errs []error
	for _, s := range f {
		if err := s.PutReceipts(receipts); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
