package analyzer

import "ledgerlens/internal/domain"

// BuildReceiptPrompt returns the extraction prompt for a purchase receipt
// captured as a still image or a short video.
func BuildReceiptPrompt(mode domain.MediaMode) string {
	intro := `You are a receipt data extraction assistant. Analyze the provided receipt image and extract the purchase into the following JSON structure.`
	if mode == domain.MediaModeVideo {
		intro = `You are a receipt data extraction assistant. The provided video shows a single purchase receipt; pick the clearest frames and extract the purchase into the following JSON structure.`
	}

	return intro + `

IMPORTANT INSTRUCTIONS:
- Extract EVERY line item on the receipt. Do not skip, summarize, or merge items.
- Amounts are plain numbers in the receipt's currency, without symbols or thousands separators.
- Normalize the transaction time to RFC 3339 (e.g. "2026-03-14T18:42:00Z"). Omit the field if no date is printed.
- "category" and every "items[].category" must be one of: dining, groceries, retail, transport, entertainment, health, services, utilities, travel, other.
- "transaction_type" must be one of: debit, credit. Ordinary purchases are debit; refunds are credit.
- "vendor_type" must be one of: restaurant, cafe, grocery, retail, service, other.
- "confidence" is your overall extraction confidence: low, medium, or high.

Return ONLY valid JSON with no markdown formatting, no code fences, no explanation — just the raw JSON object following this schema:
{
  "place": "",
  "amount": 0,
  "transaction_type": "",
  "category": "",
  "time": "",
  "vendor_type": "",
  "confidence": "",
  "items": [
    {
      "name": "",
      "quantity": 0,
      "unit_price": 0,
      "total_price": 0,
      "category": ""
    }
  ]
}

If a field is not legible on the receipt, omit it rather than guessing.`
}
