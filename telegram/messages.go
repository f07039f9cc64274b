package telegram

// User-facing message catalogue.
const (
	msgWelcomeNew = "Добро пожаловать в Task Manager Bot! 🤖\n\n" +
		"Для начала работы необходимо зарегистрироваться.\n" +
		"Пожалуйста, отправьте свой контакт, нажав на кнопку ниже:"

	msgWelcomeBack = "Добро пожаловать обратно, %s! 👋\nВыберите действие:"

	msgRegistrationSuccess = "✅ Регистрация успешно завершена!\n\n" +
		"Имя: %s\nТелефон: %s\n\n" +
		"Теперь вы можете выбирать проекты и задачи:"

	msgRegistrationError = "❌ Произошла ошибка при регистрации. Попробуйте еще раз."
	msgOwnContactOnly    = "❌ Пожалуйста, отправьте свой собственный контакт."
	msgNotRegistered     = "❌ Вы не зарегистрированы. Используйте команду /start для регистрации."
	msgNoProjects        = "❌ Проекты не найдены. Попробуйте позже."
	msgNoTasks           = "❌ В проекте '%s' нет доступных задач."

	msgRequestSent = "✅ Ваш запрос отправлен на рассмотрение!\n\n" +
		"📋 Проект: %s\n📝 Задача: %s\n\n" +
		"Ожидайте ответа от администратора."

	msgRequestApproved = "🎉 Ваш запрос одобрен!\n\n" +
		"📋 Проект: %s\n📝 Задача: %s\n\n" +
		"Можете приступать к выполнению!"

	msgRequestRejected = "😔 Ваш запрос отклонен\n\n" +
		"📋 Проект: %s\n📝 Задача: %s\n\n" +
		"Вы можете выбрать другую задачу."

	msgAdminNewRequest = "🔔 Новый запрос на задачу!\n\n" +
		"👤 Пользователь: %s\n📞 Телефон: %s\n🆔 User ID: %d\n" +
		"📋 Проект: %s\n📝 Задача: %s"

	msgAdminApproved = "✅ Задача одобрена и назначена!\n\n" +
		"👤 Пользователь: %s\n📞 Телефон: %s\n" +
		"📋 Проект: %s\n📝 Задача: %s"

	msgAdminRejected = "❌ Задача отклонена\n\n" +
		"👤 Пользователь: %s\n📞 Телефон: %s\n" +
		"📋 Проект: %s\n📝 Задача: %s"

	msgAddNoteOffer = "Можете добавить комментарий к задаче — он будет записан в столбец K."
	msgNoteSaved    = "✅ Комментарий сохранён в столбце K."
	msgNoteFailed   = "❌ Не удалось сохранить комментарий. Попробуйте позже."
	msgNoteEmpty    = "Текст пустой. Пожалуйста, отправьте комментарий."
	msgNotApproved  = "❌ Задача ещё не одобрена администратором. Комментарий можно добавить после одобрения."
	msgNoApproved   = "У вас нет одобренных задач. Сначала дождитесь одобрения заявки."
	msgNoAccess     = "❌ У вас нет доступа к этой функции."
	msgSheetError   = "❌ Ошибка при записи в таблицу"
)
