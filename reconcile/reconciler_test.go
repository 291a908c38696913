package reconcile_test

import (
	"context"
	"testing"
	"time"

	"github.com/lucafab/magazzino/catalog"
	"github.com/lucafab/magazzino/catalog/clientfake"
	apperrors "github.com/lucafab/magazzino/internal/errors"
	"github.com/lucafab/magazzino/reconcile"
	"github.com/lucafab/magazzino/scanner"
	"github.com/lucafab/magazzino/session"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

const testBarcode = "8001234567890"

func testSession() *session.Session {
	return &session.Session{Token: "tok", Username: "anna", Role: session.RoleAdmin, Expiry: time.Now().Add(time.Hour)}
}

func TestOpenFoundPrefillsAndSavesAsUpdate(t *testing.T) {
	gateway := clientfake.NewFakeGateway()
	gateway.Seed(catalog.Product{
		ID: 7, Barcode: testBarcode, Name: "Caffè", Description: "Caffè macinato",
		Quantity: 3, PurchasePrice: 2.5, SalePrice: 4.9, VATPercent: 22,
	})
	reconciler, err := reconcile.NewReconciler(gateway)
	require.NoError(t, err)

	draft, err := reconciler.Open(context.Background(), testSession(), testBarcode)
	require.NoError(t, err)
	require.True(t, draft.Existing())
	require.Equal(t, testBarcode, draft.Barcode())
	require.Equal(t, "Caffè", draft.Name)
	require.Equal(t, "3", draft.Quantity)
	require.Equal(t, "4.9", draft.SalePrice)

	draft.SalePrice = "5,20"
	require.NoError(t, draft.Save(context.Background(), testSession()))

	require.Len(t, gateway.Updates, 1, "save of an existing product must be an update")
	require.Empty(t, gateway.Creates)
	require.Equal(t, 5.2, gateway.Updates[0].SalePrice)
	require.Equal(t, int64(7), gateway.Updates[0].ID)
}

func TestOpenNotFoundYieldsEmptyDraftAndSavesAsCreate(t *testing.T) {
	gateway := clientfake.NewFakeGateway()
	reconciler, err := reconcile.NewReconciler(gateway)
	require.NoError(t, err)

	draft, err := reconciler.Open(context.Background(), testSession(), testBarcode)
	require.NoError(t, err)
	require.False(t, draft.Existing())
	require.Equal(t, testBarcode, draft.Barcode())
	require.Empty(t, draft.Name)

	draft.Name = "Latte"
	draft.Quantity = "2"
	require.NoError(t, draft.Save(context.Background(), testSession()))

	require.Len(t, gateway.Creates, 1, "save of an unknown barcode must be a create")
	require.Empty(t, gateway.Updates)
	require.Equal(t, "Latte", gateway.Creates[0].Name)
	require.Equal(t, 2.0, gateway.Creates[0].Quantity)
}

func TestOpenOtherFailureYieldsNoDraft(t *testing.T) {
	gateway := clientfake.NewFakeGateway()
	gateway.LookupErr = errors.New("boom")
	reconciler, err := reconcile.NewReconciler(gateway)
	require.NoError(t, err)

	draft, err := reconciler.Open(context.Background(), testSession(), testBarcode)
	require.Error(t, err)
	require.Nil(t, draft)
}

func TestOpenRequiresBarcode(t *testing.T) {
	reconciler, err := reconcile.NewReconciler(clientfake.NewFakeGateway())
	require.NoError(t, err)

	_, err = reconciler.Open(context.Background(), testSession(), "")
	require.ErrorIs(t, err, apperrors.ErrBarcodeRequired)
}

func TestSaveNormalizesPercentFields(t *testing.T) {
	gateway := clientfake.NewFakeGateway()
	reconciler, err := reconcile.NewReconciler(gateway)
	require.NoError(t, err)

	draft, err := reconciler.OpenFromLine(catalog.LineItem{Barcode: testBarcode, Discount: "-10%", VAT: "22%"})
	require.NoError(t, err)
	require.NoError(t, draft.Save(context.Background(), testSession()))

	require.Len(t, gateway.Creates, 1)
	require.Equal(t, "10", gateway.Creates[0].DiscountOrMarkup)
	require.Equal(t, 22.0, gateway.Creates[0].VATPercent)
}

func TestSaveUnparsableNumbersDefaultToZero(t *testing.T) {
	gateway := clientfake.NewFakeGateway()
	reconciler, err := reconcile.NewReconciler(gateway)
	require.NoError(t, err)

	draft, err := reconciler.Open(context.Background(), testSession(), testBarcode)
	require.NoError(t, err)
	draft.Quantity = "molti"
	draft.PurchasePrice = ""
	require.NoError(t, draft.Save(context.Background(), testSession()))

	require.Equal(t, 0.0, gateway.Creates[0].Quantity)
	require.Equal(t, 0.0, gateway.Creates[0].PurchasePrice)
}

func TestSaveMirrorsCreatePathOptimistically(t *testing.T) {
	gateway := clientfake.NewFakeGateway()
	gateway.CreateErr = errors.New("server down")
	list := scanner.NewList()
	reconciler, err := reconcile.NewReconciler(gateway, reconcile.WithMirror(list))
	require.NoError(t, err)

	draft, err := reconciler.Open(context.Background(), testSession(), testBarcode)
	require.NoError(t, err)
	draft.Name = "Latte"

	err = draft.Save(context.Background(), testSession())
	require.Error(t, err, "remote failure is surfaced to the caller")
	require.Equal(t, 1, list.Len(), "mirror keeps the entry regardless of the remote outcome")
}

func TestSaveMirrorUpdatesExistingEntry(t *testing.T) {
	gateway := clientfake.NewFakeGateway()
	gateway.Seed(catalog.Product{Barcode: testBarcode, Name: "Caffè"})
	list := scanner.NewList()
	list.Add(catalog.Product{Barcode: testBarcode, Name: "Caffè"})
	reconciler, err := reconcile.NewReconciler(gateway, reconcile.WithMirror(list))
	require.NoError(t, err)

	draft, err := reconciler.Open(context.Background(), testSession(), testBarcode)
	require.NoError(t, err)
	draft.Name = "Caffè Arabica"
	require.NoError(t, draft.Save(context.Background(), testSession()))

	require.Equal(t, 1, list.Len(), "mirror entry is replaced, not duplicated")
	require.Equal(t, "Caffè Arabica", list.Products()[0].Name)
}

func TestOpenFromLineRespectsFoundFlag(t *testing.T) {
	gateway := clientfake.NewFakeGateway()
	reconciler, err := reconcile.NewReconciler(gateway)
	require.NoError(t, err)

	found, err := reconciler.OpenFromLine(catalog.LineItem{Barcode: testBarcode, Found: true, Name: "Caffè"})
	require.NoError(t, err)
	require.True(t, found.Existing())

	require.NoError(t, found.Save(context.Background(), testSession()))
	require.Len(t, gateway.Updates, 1)
	require.Empty(t, gateway.Creates)
}
