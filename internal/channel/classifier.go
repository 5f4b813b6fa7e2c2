package channel

// Class tells whether an order is fulfilled through a marketplace
// integration or sold directly.
type Class string

const (
	ClassMarketplace Class = "marketplace"
	ClassDirect      Class = "direct"
)

// MarketplaceTags is the tag set one marketplace integration contributes:
// the delivery and payment type identifiers its orders carry.
type MarketplaceTags struct {
	Name          string
	DeliveryTypes []string
	PaymentTypes  []string
}

// Classifier maps an order's delivery/payment tags to a channel class by
// first match against the registered marketplace tag sets. Integrations
// register their tags independently; the classifier logic never changes
// when a marketplace is added or removed.
type Classifier struct {
	registry []MarketplaceTags
}

func NewClassifier(tags ...MarketplaceTags) *Classifier {
	c := &Classifier{}
	for _, t := range tags {
		c.Register(t)
	}
	return c
}

func (c *Classifier) Register(t MarketplaceTags) {
	c.registry = append(c.registry, t)
}

// Classify is a pure function of the two tags: identical inputs always
// yield the same class regardless of call order.
func (c *Classifier) Classify(deliveryType, paymentType string) Class {
	for _, t := range c.registry {
		for _, d := range t.DeliveryTypes {
			if d == deliveryType {
				return ClassMarketplace
			}
		}
		for _, p := range t.PaymentTypes {
			if p == paymentType {
				return ClassMarketplace
			}
		}
	}
	return ClassDirect
}

// DefaultRegistry lists the marketplace integrations shipped with the
// service. FBS is fulfillment by seller through the marketplace, DBS is
// delivery by seller, FBO is fulfillment by the marketplace operator.
func DefaultRegistry() []MarketplaceTags {
	return []MarketplaceTags{
		{
			Name:          "yandex-market",
			DeliveryTypes: []string{"fbs-yandex-market", "dbs-yandex-market"},
			PaymentTypes:  []string{"payment-fbs-yandex", "payment-dbs-yandex-market"},
		},
		{
			Name:          "ozon",
			DeliveryTypes: []string{"fbs-ozon", "dbs-ozon"},
			PaymentTypes:  []string{"payment-fbs-ozon", "payment-dbs-ozon"},
		},
		{
			Name:          "wildberries",
			DeliveryTypes: []string{"fbs-wildberries", "dbs-wildberries", "fbo-wildberries"},
			PaymentTypes:  []string{"payment-fbs-wildberries", "payment-dbs-wildberries", "payment-fbo-wildberries"},
		},
	}
}
