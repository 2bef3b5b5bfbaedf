package bot

import (
	"fmt"

	"github.com/dukaanlabs/dukaanbot/intent"
)

// Reply templates for the inventory branches. One English and one Hindi
// rendering per branch; the turn's language flag picks between them.

func replyNotFound(lang intent.Language, product string) string {
	if lang == intent.Hindi {
		return fmt.Sprintf("माफ़ कीजिए, %s हमारे कैटलॉग में नहीं है।", product)
	}
	return fmt.Sprintf("Sorry, we don't have %s in our catalog right now.", product)
}

func replyInStock(lang intent.Language, product string, count int) string {
	if lang == intent.Hindi {
		return fmt.Sprintf("जी हाँ! %s उपलब्ध है। हमारे पास स्टॉक में %d हैं। आपको कितने चाहिए?", product, count)
	}
	return fmt.Sprintf("Yes! %s is available. We have %d in stock. How many would you like?", product, count)
}

func replyOutOfStock(lang intent.Language, product string) string {
	if lang == intent.Hindi {
		return fmt.Sprintf("माफ़ कीजिए, %s अभी स्टॉक में नहीं है।", product)
	}
	return fmt.Sprintf("Sorry, %s is currently out of stock.", product)
}

func replyOrderConfirmed(lang intent.Language, product string, qty int) string {
	if lang == intent.Hindi {
		return fmt.Sprintf("बहुत बढ़िया! आपका ऑर्डर कन्फर्म हो गया है: %d x %s।", qty, product)
	}
	return fmt.Sprintf("Great! Your order is confirmed: %d x %s.", qty, product)
}

func replyPartialStock(lang intent.Language, product string, available int) string {
	if lang == intent.Hindi {
		return fmt.Sprintf("माफ़ कीजिए, अभी हमारे पास %s के केवल %d ही उपलब्ध हैं। क्या आप %d ऑर्डर करना चाहेंगे?", product, available, available)
	}
	return fmt.Sprintf("Sorry, we only have %d of %s available right now. Would you like to order %d instead?", available, product, available)
}

func replyGenericHelp(lang intent.Language) string {
	if lang == intent.Hindi {
		return "मैं आपकी कैसे मदद कर सकता हूँ? आप स्टॉक के बारे में पूछ सकते हैं या ऑर्डर दे सकते हैं।"
	}
	return "How can I help you today? You can ask about stock or place an order."
}
