package services

import (
	"encoding/xml"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/moov-io/iso20022/pkg/common"
	"github.com/moov-io/iso20022/pkg/pacs_v08"
	"github.com/orgpay/payroll/internal/factory"
	"github.com/orgpay/payroll/internal/middleware"
	"github.com/orgpay/payroll/internal/models"
	"go.uber.org/zap"
)

// ExportService renders payment history as ISO 20022 pacs.008 messages so
// downstream banking systems can ingest payroll runs.
type ExportService struct {
	factory  *factory.Factory
	currency string
	log      *zap.Logger
}

func NewExportService(f *factory.Factory, currency string, log *zap.Logger) *ExportService {
	if currency == "" {
		currency = "USD"
	}
	return &ExportService{
		factory:  f,
		currency: currency,
		log:      log.Named("export"),
	}
}

// ExportPayments exports the caller's payment history
// @Summary Export payments as ISO 20022
// @Description Render recorded payments as a pacs.008 FIToFICustomerCreditTransfer XML document
// @Tags export
// @Produce json
// @Param recipient query string false "Filter by recipient wallet"
// @Success 200 {object} object{status=string,messageType=string,payments=int,xml=string}
// @Failure 404 {object} ErrorResponse
// @Router /payments/export [get]
func (es *ExportService) ExportPayments(w http.ResponseWriter, r *http.Request) {
	wallet := middleware.CallerWallet(r.Context())
	if wallet == "" {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}
	l, err := es.factory.Organization(wallet)
	if err != nil {
		SendLedgerError(w, err)
		return
	}

	payments := l.Payments()
	if recipient := r.URL.Query().Get("recipient"); recipient != "" {
		payments = l.PaymentsFor(recipient)
	}
	if len(payments) == 0 {
		SendErrorResponse(w, "No payments to export", http.StatusNotFound, nil)
		return
	}

	org := l.Organization()
	doc, err := es.CreatePacs008(org.Owner, payments)
	if err != nil {
		es.log.Error("pacs.008 build failed", zap.Error(err))
		SendErrorResponse(w, err.Error(), http.StatusInternalServerError, nil)
		return
	}
	xmlData, err := es.ConvertToXML(doc)
	if err != nil {
		SendErrorResponse(w, err.Error(), http.StatusInternalServerError, nil)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "exported",
		"messageType": "pacs.008.001.08",
		"payments":    len(payments),
		"xml":         xmlData,
	})
}

// CreatePacs008 builds a pacs.008 FIToFICustomerCreditTransfer message with
// one credit transfer per recorded payment.
func (es *ExportService) CreatePacs008(debtor string, payments []models.Payment) (*pacs_v08.FIToFICustomerCreditTransferV08, error) {
	msgId := uuid.New().String()
	creDtTm := time.Now()
	settlementDate := time.Now()

	var total float64
	txs := make([]pacs_v08.CreditTransferTransaction39, 0, len(payments))
	for _, p := range payments {
		amount := float64(p.Amount)
		total += amount
		txID := p.ID
		endToEnd := fmt.Sprintf("%s-%s", p.Recipient, p.Timestamp.Format("20060102150405"))

		txs = append(txs, pacs_v08.CreditTransferTransaction39{
			PmtId: pacs_v08.PaymentIdentification7{
				InstrId:    &[]common.Max35Text{common.Max35Text(txID)}[0],
				EndToEndId: common.Max35Text(endToEnd),
				TxId:       &[]common.Max35Text{common.Max35Text(txID)}[0],
			},
			IntrBkSttlmAmt: pacs_v08.ActiveCurrencyAndAmount{
				Ccy:   common.ActiveCurrencyCode(es.currency),
				Value: amount,
			},
			IntrBkSttlmDt: (*common.ISODate)(&settlementDate),
			ChrgBr:        "SLEV",
			DbtrAgt: pacs_v08.BranchAndFinancialInstitutionIdentification6{
				FinInstnId: pacs_v08.FinancialInstitutionIdentification18{
					BICFI: &[]common.BICFIDec2014Identifier{common.BICFIDec2014Identifier("ORGPAY00")}[0],
				},
			},
			Dbtr: pacs_v08.PartyIdentification135{
				Nm: &[]common.Max140Text{common.Max140Text(debtor)}[0],
			},
			CdtrAgt: pacs_v08.BranchAndFinancialInstitutionIdentification6{
				FinInstnId: pacs_v08.FinancialInstitutionIdentification18{
					ClrSysMmbId: &pacs_v08.ClearingSystemMemberIdentification2{
						MmbId: common.Max35Text(p.TokenAddress),
					},
				},
			},
			Cdtr: pacs_v08.PartyIdentification135{
				Nm: &[]common.Max140Text{common.Max140Text(p.Recipient)}[0],
			},
		})
	}

	doc := &pacs_v08.FIToFICustomerCreditTransferV08{
		GrpHdr: pacs_v08.GroupHeader93{
			MsgId:   common.Max35Text(msgId),
			CreDtTm: common.ISODateTime(creDtTm),
			NbOfTxs: common.Max15NumericText(fmt.Sprintf("%d", len(payments))),
			TtlIntrBkSttlmAmt: &pacs_v08.ActiveCurrencyAndAmount{
				Ccy:   common.ActiveCurrencyCode(es.currency),
				Value: total,
			},
			IntrBkSttlmDt: (*common.ISODate)(&settlementDate),
			SttlmInf: pacs_v08.SettlementInstruction7{
				SttlmMtd: "CLRG", // Clearing
			},
		},
		CdtTrfTxInf: txs,
	}

	return doc, nil
}

// ConvertToXML converts an ISO 20022 document to an XML string
func (es *ExportService) ConvertToXML(doc interface{}) (string, error) {
	xmlData, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal XML: %w", err)
	}
	return xml.Header + string(xmlData), nil
}
