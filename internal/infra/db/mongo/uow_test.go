package mongo

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/mongo"

	"stayhub/internal/app/uow"
	domainbooking "stayhub/internal/domain/booking"
)

func TestClassifyTxnError(t *testing.T) {
	conflict := mongo.CommandError{Code: 112, Name: "WriteConflict", Labels: []string{"TransientTransactionError"}}
	assert.ErrorIs(t, classifyTxnError(conflict), domainbooking.ErrConcurrentUpdate)

	unknown := mongo.CommandError{Code: 50, Labels: []string{"UnknownTransactionCommitResult"}}
	assert.ErrorIs(t, classifyTxnError(unknown), domainbooking.ErrConcurrentUpdate)

	plain := errors.New("disk full")
	assert.Equal(t, plain, classifyTxnError(plain))
}

func TestFactoryRequiresRepositories(t *testing.T) {
	_, err := Factory{}.Begin(context.Background(), uow.TxOptions{})
	assert.ErrorIs(t, err, ErrUnitOfWorkNotConfigured)
}
